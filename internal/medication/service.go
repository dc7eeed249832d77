package medication

import (
	"context"
	"fmt"

	"github.com/family-health-keeper/backend/internal/messaging"
	"github.com/family-health-keeper/backend/internal/pagination"
	"github.com/rs/zerolog"
)

const resourceName = "medication"

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
		logger:    logger.With().Str("component", "medication").Logger(),
	}
}

func (s *Service) CreateMedication(ctx context.Context, ownerID string, req CreateMedicationRequest) (*Medication, error) {
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

	m, err := s.repo.Create(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		messaging.EventMedicationCreated, resourceName, m.ID, ownerID, m.PatientID,
		map[string]string{"name": m.Name, "dosage": m.Dosage},
	))
	return m, nil
}

func (s *Service) GetMedication(ctx context.Context, ownerID, id string) (*Medication, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) ListMedications(ctx context.Context, ownerID string, filter ListFilter, params pagination.Params) (*pagination.Page[Medication], error) {
	params.Validate()
	meds, total, err := s.repo.List(ctx, ownerID, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(meds, params, total), nil
}

// UpdateMedication re-checks the date range against the stored values
// when only one side of it changes.
func (s *Service) UpdateMedication(ctx context.Context, ownerID, id string, req UpdateMedicationRequest) (*Medication, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.StartDate != nil || req.EndDate != nil {
		current, err := s.repo.Get(ctx, ownerID, id)
		if err != nil {
			return nil, err
		}
		start, end := deref(current.StartDate), deref(current.EndDate)
		if req.StartDate != nil {
			start = *req.StartDate
		}
		if req.EndDate != nil {
			end = *req.EndDate
		}
		if err := validateRange(start, end); err != nil {
			return nil, err
		}
	}

	m, err := s.repo.Update(ctx, ownerID, id, req)
	if err != nil {
		return nil, err
	}

	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		messaging.EventMedicationUpdated, resourceName, m.ID, ownerID, m.PatientID,
		map[string]string{"is_active": fmt.Sprint(m.IsActive)},
	))
	return m, nil
}

func (s *Service) DeleteMedication(ctx context.Context, ownerID, id string) error {
	m, err := s.repo.SoftDelete(ctx, ownerID, id)
	if err != nil {
		return err
	}

	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		messaging.EventMedicationDeleted, resourceName, m.ID, ownerID, m.PatientID, nil,
	))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
