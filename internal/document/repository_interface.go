package document

import "context"

// RepositoryInterface defines the contract for document metadata access
type RepositoryInterface interface {
	Create(ctx context.Context, doc *Document) (*Document, error)
	Get(ctx context.Context, ownerID, id string) (*Document, error)
	List(ctx context.Context, ownerID string, filter ListFilter, limit, offset int) ([]Document, int, error)
	SoftDelete(ctx context.Context, ownerID, id string) (*Document, error)
}

var _ RepositoryInterface = (*Repository)(nil)

// PatientChecker confirms that a patient belongs to the caller.
type PatientChecker interface {
	Exists(ctx context.Context, ownerID, id string) (bool, error)
}
