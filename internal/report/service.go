package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/family-health-keeper/backend/internal/patient"
	"github.com/rs/zerolog"
)

// ServiceInterface defines the contract for report generation
type ServiceInterface interface {
	PatientSummary(ctx context.Context, ownerID, patientID string) (*PatientSummary, error)
	Overview(ctx context.Context, ownerID string) (*Overview, error)
}

type Service struct {
	repo     RepositoryInterface
	patients PatientLookup
	logger   zerolog.Logger
	now      func() time.Time
}

var _ ServiceInterface = (*Service)(nil)

func NewService(repo RepositoryInterface, patients PatientLookup, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		logger:   logger.With().Str("component", "report").Logger(),
		now:      time.Now,
	}
}

func (s *Service) PatientSummary(ctx context.Context, ownerID, patientID string) (*PatientSummary, error) {
	p, err := s.patients.Get(ctx, ownerID, patientID)
	if errors.Is(err, patient.ErrPatientNotFound) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}

	now := s.now().UTC()
	summary := &PatientSummary{Patient: p, GeneratedAt: now}

	counts, err := s.repo.PatientCounts(ctx, ownerID, p.ID, now)
	if err != nil {
		return nil, err
	}
	summary.Counts = *counts

	if summary.ActiveConditions, err = s.repo.ActiveConditions(ctx, ownerID, p.ID); err != nil {
		return nil, err
	}
	if summary.ActiveMedications, err = s.repo.ActiveMedications(ctx, ownerID, p.ID); err != nil {
		return nil, err
	}
	if summary.UpcomingAppointments, err = s.repo.UpcomingAppointments(ctx, ownerID, p.ID, now, UpcomingLimit); err != nil {
		return nil, err
	}

	// Lists are always encoded as arrays.
	if summary.ActiveConditions == nil {
		summary.ActiveConditions = []Condition{}
	}
	if summary.ActiveMedications == nil {
		summary.ActiveMedications = []Medication{}
	}
	if summary.UpcomingAppointments == nil {
		summary.UpcomingAppointments = []Appointment{}
	}

	s.logger.Debug().Str("patient_id", p.ID).Msg("patient summary generated")
	return summary, nil
}

func (s *Service) Overview(ctx context.Context, ownerID string) (*Overview, error) {
	now := s.now().UTC()
	o, err := s.repo.Overview(ctx, ownerID, now)
	if err != nil {
		return nil, err
	}
	o.GeneratedAt = now
	return o, nil
}
