package medication

import (
	"context"

	"github.com/family-health-keeper/backend/internal/pagination"
)

// ServiceInterface defines the contract for medication operations
type ServiceInterface interface {
	CreateMedication(ctx context.Context, ownerID string, req CreateMedicationRequest) (*Medication, error)
	GetMedication(ctx context.Context, ownerID, id string) (*Medication, error)
	ListMedications(ctx context.Context, ownerID string, filter ListFilter, params pagination.Params) (*pagination.Page[Medication], error)
	UpdateMedication(ctx context.Context, ownerID, id string, req UpdateMedicationRequest) (*Medication, error)
	DeleteMedication(ctx context.Context, ownerID, id string) error
}
