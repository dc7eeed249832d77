package patient

import (
	"context"
	"time"

	"github.com/family-health-keeper/backend/internal/messaging"
	"github.com/family-health-keeper/backend/internal/pagination"
	"github.com/rs/zerolog"
)

const resourceName = "patient"

type Service struct {
	repo      RepositoryInterface
	publisher messaging.PublisherInterface
	logger    zerolog.Logger
	now       func() time.Time
}

var _ ServiceInterface = (*Service)(nil)

func NewService(repo RepositoryInterface, publisher messaging.PublisherInterface, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With().Str("component", "patient").Logger(),
		now:       time.Now,
	}
}

func (s *Service) CreatePatient(ctx context.Context, ownerID string, req CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("patient_id", p.ID).Str("owner_id", ownerID).Msg("patient created")
	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		messaging.EventPatientCreated, resourceName, p.ID, ownerID, "",
		map[string]string{"full_name": p.FullName},
	))
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, ownerID, id string) (*Patient, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) ListPatients(ctx context.Context, ownerID string, filter ListFilter, params pagination.Params) (*pagination.Page[Patient], error) {
	params.Validate()
	patients, total, err := s.repo.List(ctx, ownerID, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(patients, params, total), nil
}

func (s *Service) UpdatePatient(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*Patient, error) {
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, ownerID, id, req)
	if err != nil {
		return nil, err
	}

	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		messaging.EventPatientUpdated, resourceName, p.ID, ownerID, "", nil,
	))
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, ownerID, id string) error {
	if err := s.repo.SoftDelete(ctx, ownerID, id); err != nil {
		return err
	}

	s.logger.Info().Str("patient_id", id).Str("owner_id", ownerID).Msg("patient deleted")
	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		messaging.EventPatientDeleted, resourceName, id, ownerID, "", nil,
	))
	return nil
}
