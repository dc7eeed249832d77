package medicalhistory

import (
	"context"

	"github.com/family-health-keeper/backend/internal/pagination"
)

// ServiceInterface defines the contract for medical history operations
type ServiceInterface interface {
	CreateEntry(ctx context.Context, ownerID string, req CreateEntryRequest) (*Entry, error)
	GetEntry(ctx context.Context, ownerID, id string) (*Entry, error)
	ListEntries(ctx context.Context, ownerID string, filter ListFilter, params pagination.Params) (*pagination.Page[Entry], error)
	UpdateEntry(ctx context.Context, ownerID, id string, req UpdateEntryRequest) (*Entry, error)
	DeleteEntry(ctx context.Context, ownerID, id string) error
}
