package patient

import "context"

// RepositoryInterface defines the contract for patient data access. Every
// call is scoped to ownerID.
type RepositoryInterface interface {
	Create(ctx context.Context, ownerID string, req CreatePatientRequest) (*Patient, error)
	Get(ctx context.Context, ownerID, id string) (*Patient, error)
	List(ctx context.Context, ownerID string, filter ListFilter, limit, offset int) ([]Patient, int, error)
	Update(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*Patient, error)
	SoftDelete(ctx context.Context, ownerID, id string) error
	Exists(ctx context.Context, ownerID, id string) (bool, error)
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
