package patient

import (
	"context"

	"github.com/family-health-keeper/backend/internal/pagination"
)

// ServiceInterface defines the contract for patient business logic operations
type ServiceInterface interface {
	CreatePatient(ctx context.Context, ownerID string, req CreatePatientRequest) (*Patient, error)
	GetPatient(ctx context.Context, ownerID, id string) (*Patient, error)
	ListPatients(ctx context.Context, ownerID string, filter ListFilter, params pagination.Params) (*pagination.Page[Patient], error)
	UpdatePatient(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*Patient, error)
	DeletePatient(ctx context.Context, ownerID, id string) error
}
