package document

import (
	"context"
	"io"

	"github.com/family-health-keeper/backend/internal/pagination"
)

// ServiceInterface defines the contract for document business logic
type ServiceInterface interface {
	UploadDocument(ctx context.Context, ownerID string, req UploadRequest) (*Document, error)
	GetDocument(ctx context.Context, ownerID, id string) (*Document, error)
	ListDocuments(ctx context.Context, ownerID string, filter ListFilter, params pagination.Params) (*pagination.Page[Document], error)
	OpenDocument(ctx context.Context, ownerID, id string) (*Document, io.ReadSeekCloser, error)
	DeleteDocument(ctx context.Context, ownerID, id string) error
}
