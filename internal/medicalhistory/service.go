package medicalhistory

import (
	"context"
	"fmt"

	"github.com/family-health-keeper/backend/internal/messaging"
	"github.com/family-health-keeper/backend/internal/pagination"
	"github.com/rs/zerolog"
)

const resourceName = "medical_history"

type Service struct {
	repo      RepositoryInterface
	patients  PatientChecker
	publisher messaging.PublisherInterface
	logger    zerolog.Logger
}

var _ ServiceInterface = (*Service)(nil)

func NewService(repo RepositoryInterface, patients PatientChecker, publisher messaging.PublisherInterface, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		patients:  patients,
		publisher: publisher,
		logger:    logger.With().Str("component", "medicalhistory").Logger(),
	}
}

func (s *Service) CreateEntry(ctx context.Context, ownerID string, req CreateEntryRequest) (*Entry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ok, err := s.patients.Exists(ctx, ownerID, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify patient: %w", err)
	}
	if !ok {
		return nil, ErrPatientNotFound
	}

	e, err := s.repo.Create(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		messaging.EventMedicalHistoryCreated, resourceName, e.ID, ownerID, e.PatientID,
		map[string]string{"condition": e.Condition, "status": e.Status},
	))
	return e, nil
}

func (s *Service) GetEntry(ctx context.Context, ownerID, id string) (*Entry, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) ListEntries(ctx context.Context, ownerID string, filter ListFilter, params pagination.Params) (*pagination.Page[Entry], error) {
	params.Validate()
	if filter.Status != "" {
		if err := validateStatus(&filter.Status); err != nil {
			return nil, err
		}
	}
	entries, total, err := s.repo.List(ctx, ownerID, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(entries, params, total), nil
}

func (s *Service) UpdateEntry(ctx context.Context, ownerID, id string, req UpdateEntryRequest) (*Entry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e, err := s.repo.Update(ctx, ownerID, id, req)
	if err != nil {
		return nil, err
	}

	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		messaging.EventMedicalHistoryUpdated, resourceName, e.ID, ownerID, e.PatientID,
		map[string]string{"status": e.Status},
	))
	return e, nil
}

func (s *Service) DeleteEntry(ctx context.Context, ownerID, id string) error {
	e, err := s.repo.SoftDelete(ctx, ownerID, id)
	if err != nil {
		return err
	}

	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		messaging.EventMedicalHistoryDeleted, resourceName, e.ID, ownerID, e.PatientID, nil,
	))
	return nil
}
