package medication

import "context"

// RepositoryInterface defines the contract for medication data access
type RepositoryInterface interface {
	Create(ctx context.Context, ownerID string, req CreateMedicationRequest) (*Medication, error)
	Get(ctx context.Context, ownerID, id string) (*Medication, error)
	List(ctx context.Context, ownerID string, filter ListFilter, limit, offset int) ([]Medication, int, error)
	Update(ctx context.Context, ownerID, id string, req UpdateMedicationRequest) (*Medication, error)
	SoftDelete(ctx context.Context, ownerID, id string) (*Medication, error)
}

var _ RepositoryInterface = (*Repository)(nil)

// PatientChecker confirms that a patient belongs to the caller.
type PatientChecker interface {
	Exists(ctx context.Context, ownerID, id string) (bool, error)
}
