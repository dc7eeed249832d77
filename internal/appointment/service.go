package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/family-health-keeper/backend/internal/mail"
	"github.com/family-health-keeper/backend/internal/messaging"
	"github.com/family-health-keeper/backend/internal/pagination"
	"github.com/family-health-keeper/backend/internal/patient"
	"github.com/rs/zerolog"
)

const (
	resourceName = "appointment"
	mailTimeout  = 10 * time.Second
)

type Service struct {
	repo        RepositoryInterface
	patients    PatientLookup
	users       UserLookup
	mailer      mail.Sender
	publisher   messaging.PublisherInterface
	projectName string
	logger      zerolog.Logger
	now         func() time.Time
}

var _ ServiceInterface = (*Service)(nil)

// NewService wires the appointment service. mailer and publisher may be
// no-op implementations.
func NewService(repo RepositoryInterface, patients PatientLookup, users UserLookup, mailer mail.Sender,
	publisher messaging.PublisherInterface, projectName string, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		patients:    patients,
		users:       users,
		mailer:      mailer,
		publisher:   publisher,
		projectName: projectName,
		logger:      logger.With().Str("component", "appointment").Logger(),
		now:         time.Now,
	}
}

func (s *Service) CreateAppointment(ctx context.Context, ownerID string, req CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.patients.Get(ctx, ownerID, req.PatientID)
	if errors.Is(err, patient.ErrPatientNotFound) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify patient: %w", err)
	}

	a, err := s.repo.Create(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("appointment_id", a.ID).Time("scheduled_at", a.ScheduledAt).Msg("appointment scheduled")
	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		messaging.EventAppointmentScheduled, resourceName, a.ID, ownerID, a.PatientID,
		map[string]string{"title": a.Title, "scheduled_at": a.ScheduledAt.Format(time.RFC3339)},
	))

	if a.Status == StatusScheduled {
		s.sendConfirmation(ctx, ownerID, p.FullName, a)
	}
	return a, nil
}

// sendConfirmation mails the owner. Failures are logged and never fail the
// request.
func (s *Service) sendConfirmation(ctx context.Context, ownerID, patientName string, a *Appointment) {
	if s.mailer == nil {
		return
	}
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", a.ID).Msg("cannot resolve owner for confirmation mail")
		return
	}

	msg := mail.AppointmentConfirmation(s.projectName, owner.Email, mail.AppointmentDetails{
		RecipientName: owner.FullName,
		PatientName:   patientName,
		Title:         a.Title,
		DoctorName:    a.DoctorName,
		Location:      a.Location,
		ScheduledAt:   a.ScheduledAt,
		Duration:      time.Duration(a.DurationMinutes) * time.Minute,
	})

	mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
	defer cancel()
	if err := s.mailer.Send(mailCtx, msg); err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", a.ID).Msg("failed to send appointment confirmation")
	}
}

func (s *Service) GetAppointment(ctx context.Context, ownerID, id string) (*Appointment, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) ListAppointments(ctx context.Context, ownerID string, filter ListFilter, params pagination.Params) (*pagination.Page[Appointment], error) {
	params.Validate()
	if filter.Status != "" {
		if err := validateStatus(&filter.Status); err != nil {
			return nil, err
		}
	}
	items, total, err := s.repo.List(ctx, ownerID, filter, s.now().UTC(), params.Limit, params.Offset())
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, params, total), nil
}

func (s *Service) UpdateAppointment(ctx context.Context, ownerID, id string, req UpdateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.repo.Update(ctx, ownerID, id, req)
	if err != nil {
		return nil, err
	}

	eventType := messaging.EventAppointmentUpdated
	if req.Status != nil && *req.Status == StatusCancelled {
		eventType = messaging.EventAppointmentCancelled
	}
	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		eventType, resourceName, a.ID, ownerID, a.PatientID,
		map[string]string{"status": a.Status},
	))
	return a, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, ownerID, id string) error {
	a, err := s.repo.SoftDelete(ctx, ownerID, id)
	if err != nil {
		return err
	}

	messaging.Emit(ctx, s.publisher, s.logger, messaging.NewRecordEvent(
		messaging.EventAppointmentCancelled, resourceName, a.ID, ownerID, a.PatientID,
		map[string]string{"reason": "deleted"},
	))
	return nil
}
