package medicalhistory

import "context"

// RepositoryInterface defines the contract for medical history data access
type RepositoryInterface interface {
	Create(ctx context.Context, ownerID string, req CreateEntryRequest) (*Entry, error)
	Get(ctx context.Context, ownerID, id string) (*Entry, error)
	List(ctx context.Context, ownerID string, filter ListFilter, limit, offset int) ([]Entry, int, error)
	Update(ctx context.Context, ownerID, id string, req UpdateEntryRequest) (*Entry, error)
	SoftDelete(ctx context.Context, ownerID, id string) (*Entry, error)
}

var _ RepositoryInterface = (*Repository)(nil)

// PatientChecker confirms that a patient belongs to the caller.
type PatientChecker interface {
	Exists(ctx context.Context, ownerID, id string) (bool, error)
}
