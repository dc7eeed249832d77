package document

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/family-health-keeper/backend/internal/messaging"
	"github.com/family-health-keeper/backend/internal/pagination"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const resourceName = "document"

type Service struct {
	repo        RepositoryInterface
	patients    PatientChecker
	storage     Storage
	publisher   messaging.PublisherInterface
	maxFileSize int64
	logger      zerolog.Logger
	now         func() time.Time
}

var _ ServiceInterface = (*Service)(nil)

func NewService(repo RepositoryInterface, patients PatientChecker, storage Storage, publisher messaging.PublisherInterface,
	maxFileSize int64, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		patients:    patients,
		storage:     storage,
		publisher:   publisher,
		maxFileSize: maxFileSize,
		logger:      logger.With().Str("component", "document").Logger(),
		now:         time.Now,
	}
}

// MaxFileSize is the largest accepted upload in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// UploadDocument stores the file first and then its metadata. The file is
// removed again when the insert fails.
func (s *Service) UploadDocument(ctx context.Context, ownerID string, req UploadRequest) (*Document, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var patientID *string
	if req.PatientID != "" {
		ok, err := s.patients.Exists(ctx, ownerID, req.PatientID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify patient: %w", err)
		}
		if !ok {
			return nil, ErrPatientNotFound
		}
		patientID = &req.PatientID
	}

	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(req.FileName))
	stored, err := s.storage.Save(ownerID, id, ext, req.Body, s.maxFileSize)
	if err != nil {
		return nil, err
	}

	doc, err := s.repo.Create(ctx, &Document{
		ID:          id,
		OwnerID:     ownerID,
		PatientID:   patientID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   stored.Size,
		SHA256:      stored.SHA256,
		StoragePath: stored.Path,
		Category:    req.Category,
		Description: req.Description,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		if rmErr := s.storage.Remove(stored.Path); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("path", stored.Path).Msg("failed to remove orphaned upload")
		}
		return nil, err
	}

	s.logger.Info().Str("document_id", doc.ID).Int64("size", doc.SizeBytes).Msg("document uploaded")
	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		messaging.EventDocumentUploaded, resourceName, doc.ID, ownerID, derefString(doc.PatientID),
		map[string]string{"file_name": doc.FileName, "category": doc.Category, "size_bytes": strconv.FormatInt(doc.SizeBytes, 10)},
	))
	return doc, nil
}

func (s *Service) GetDocument(ctx context.Context, ownerID, id string) (*Document, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) ListDocuments(ctx context.Context, ownerID string, filter ListFilter, params pagination.Params) (*pagination.Page[Document], error) {
	params.Validate()
	if filter.Category != "" {
		if err := validateCategory(&filter.Category); err != nil {
			return nil, err
		}
	}
	docs, total, err := s.repo.List(ctx, ownerID, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(docs, params, total), nil
}

// OpenDocument returns the metadata and an open reader. The caller closes
// the reader.
func (s *Service) OpenDocument(ctx context.Context, ownerID, id string) (*Document, io.ReadSeekCloser, error) {
	doc, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.storage.Open(doc.StoragePath)
	if err != nil {
		return nil, nil, err
	}
	return doc, f, nil
}

// DeleteDocument soft deletes the metadata and removes the file. A failed
// file removal is logged; the cleanup job retries it after retention.
func (s *Service) DeleteDocument(ctx context.Context, ownerID, id string) error {
	doc, err := s.repo.SoftDelete(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.storage.Remove(doc.StoragePath); err != nil {
		s.logger.Warn().Err(err).Str("document_id", doc.ID).Msg("failed to remove document file")
	}

	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		messaging.EventDocumentDeleted, resourceName, doc.ID, ownerID, derefString(doc.PatientID), nil,
	))
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
