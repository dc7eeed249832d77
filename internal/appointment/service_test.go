package appointment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/family-health-keeper/backend/internal/mail"
	"github.com/family-health-keeper/backend/internal/messaging"
	"github.com/family-health-keeper/backend/internal/pagination"
	"github.com/family-health-keeper/backend/internal/patient"
	"github.com/family-health-keeper/backend/internal/users"
	"github.com/rs/zerolog"
)

type mockRepository struct {
	createFunc     func(ctx context.Context, ownerID string, req CreateAppointmentRequest) (*Appointment, error)
	getFunc        func(ctx context.Context, ownerID, id string) (*Appointment, error)
	listFunc       func(ctx context.Context, ownerID string, filter ListFilter, now time.Time, limit, offset int) ([]Appointment, int, error)
	updateFunc     func(ctx context.Context, ownerID, id string, req UpdateAppointmentRequest) (*Appointment, error)
	softDeleteFunc func(ctx context.Context, ownerID, id string) (*Appointment, error)
}

func (m *mockRepository) Create(ctx context.Context, ownerID string, req CreateAppointmentRequest) (*Appointment, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, ownerID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) Get(ctx context.Context, ownerID, id string) (*Appointment, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, ownerID, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) List(ctx context.Context, ownerID string, filter ListFilter, now time.Time, limit, offset int) ([]Appointment, int, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, ownerID, filter, now, limit, offset)
	}
	return nil, 0, errors.New("not implemented")
}

func (m *mockRepository) Update(ctx context.Context, ownerID, id string, req UpdateAppointmentRequest) (*Appointment, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, ownerID, id, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) SoftDelete(ctx context.Context, ownerID, id string) (*Appointment, error) {
	if m.softDeleteFunc != nil {
		return m.softDeleteFunc(ctx, ownerID, id)
	}
	return nil, errors.New("not implemented")
}

type mockPatients struct{}

func (mockPatients) Get(_ context.Context, ownerID, id string) (*patient.Patient, error) {
	if id != "p1" {
		return nil, patient.ErrPatientNotFound
	}
	return &patient.Patient{ID: id, OwnerID: ownerID, FullName: "Tom"}, nil
}

type mockUsers struct {
	err error
}

func (m mockUsers) GetByID(_ context.Context, id string) (*users.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &users.User{ID: id, Email: "jane@example.com", FullName: "Jane"}, nil
}

type mockMailer struct {
	sent []mail.Message
	err  error
}

func (m *mockMailer) Send(_ context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type mockPublisher struct {
	keys []string
}

func (m *mockPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	m.keys = append(m.keys, routingKey)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func echoCreate(_ context.Context, ownerID string, req CreateAppointmentRequest) (*Appointment, error) {
	return &Appointment{
		ID: "a1", OwnerID: ownerID, PatientID: req.PatientID, Title: req.Title,
		ScheduledAt: req.scheduledAt, DurationMinutes: req.DurationMinutes, Status: req.Status,
	}, nil
}

func TestCreateAppointment_SendsMailAndEvent(t *testing.T) {
	mailer := &mockMailer{}
	pub := &mockPublisher{}
	svc := NewService(&mockRepository{createFunc: echoCreate}, mockPatients{}, mockUsers{}, mailer, pub, "Family Health Keeper", zerolog.Nop())

	a, err := svc.CreateAppointment(context.Background(), "o1", CreateAppointmentRequest{
		PatientID: "p1", Title: "Check-up", ScheduledAt: "2025-03-04T09:30:00+01:00",
	})
	if err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	if a.DurationMinutes != DefaultDurationMinutes || a.Status != StatusScheduled {
		t.Errorf("defaults not applied: %+v", a)
	}
	if !a.ScheduledAt.Equal(time.Date(2025, 3, 4, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("scheduled_at = %v", a.ScheduledAt)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To != "jane@example.com" {
		t.Fatalf("sent = %+v", mailer.sent)
	}
	if !strings.Contains(mailer.sent[0].Body, "Tom") {
		t.Errorf("mail body missing patient name: %s", mailer.sent[0].Body)
	}
	if len(pub.keys) != 1 || pub.keys[0] != messaging.EventAppointmentScheduled {
		t.Errorf("events = %v", pub.keys)
	}
}

func TestCreateAppointment_MailFailureIsNotFatal(t *testing.T) {
	svc := NewService(&mockRepository{createFunc: echoCreate}, mockPatients{}, mockUsers{}, &mockMailer{err: errors.New("smtp down")}, nil, "FHK", zerolog.Nop())

	if _, err := svc.CreateAppointment(context.Background(), "o1", CreateAppointmentRequest{
		PatientID: "p1", Title: "X", ScheduledAt: "2025-03-04T09:30:00Z",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateAppointment_NoMailForCompleted(t *testing.T) {
	mailer := &mockMailer{}
	svc := NewService(&mockRepository{createFunc: echoCreate}, mockPatients{}, mockUsers{}, mailer, nil, "FHK", zerolog.Nop())

	if _, err := svc.CreateAppointment(context.Background(), "o1", CreateAppointmentRequest{
		PatientID: "p1", Title: "Past visit", ScheduledAt: "2020-01-01T10:00:00Z", Status: "completed",
	}); err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("no mail expected, got %d", len(mailer.sent))
	}
}

func TestCreateAppointment_UnknownPatient(t *testing.T) {
	svc := NewService(&mockRepository{createFunc: echoCreate}, mockPatients{}, mockUsers{}, nil, nil, "FHK", zerolog.Nop())

	_, err := svc.CreateAppointment(context.Background(), "o1", CreateAppointmentRequest{
		PatientID: "p2", Title: "X", ScheduledAt: "2025-03-04T09:30:00Z",
	})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateAppointment_Validation(t *testing.T) {
	svc := NewService(&mockRepository{}, mockPatients{}, mockUsers{}, nil, nil, "FHK", zerolog.Nop())

	tests := []struct {
		name string
		req  CreateAppointmentRequest
	}{
		{"missing title", CreateAppointmentRequest{PatientID: "p1", ScheduledAt: "2025-03-04T09:30:00Z"}},
		{"missing time", CreateAppointmentRequest{PatientID: "p1", Title: "X"}},
		{"bad time", CreateAppointmentRequest{PatientID: "p1", Title: "X", ScheduledAt: "tomorrow"}},
		{"negative duration", CreateAppointmentRequest{PatientID: "p1", Title: "X", ScheduledAt: "2025-03-04T09:30:00Z", DurationMinutes: -5}},
		{"bad status", CreateAppointmentRequest{PatientID: "p1", Title: "X", ScheduledAt: "2025-03-04T09:30:00Z", Status: "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateAppointment(context.Background(), "o1", tt.req); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v", err)
			}
		})
	}
}

func TestUpdateAppointment_CancelEmitsCancelled(t *testing.T) {
	repo := &mockRepository{
		updateFunc: func(_ context.Context, ownerID, id string, req UpdateAppointmentRequest) (*Appointment, error) {
			return &Appointment{ID: id, OwnerID: ownerID, Status: *req.Status}, nil
		},
	}
	pub := &mockPublisher{}
	svc := NewService(repo, mockPatients{}, mockUsers{}, nil, pub, "FHK", zerolog.Nop())
	status := "Cancelled"

	a, err := svc.UpdateAppointment(context.Background(), "o1", "a1", UpdateAppointmentRequest{Status: &status})
	if err != nil {
		t.Fatalf("UpdateAppointment: %v", err)
	}
	if a.Status != StatusCancelled {
		t.Errorf("status = %q", a.Status)
	}
	if len(pub.keys) != 1 || pub.keys[0] != messaging.EventAppointmentCancelled {
		t.Errorf("events = %v", pub.keys)
	}
}

func TestListAppointments_UpcomingUsesClock(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockRepository{
		listFunc: func(_ context.Context, _ string, filter ListFilter, now time.Time, _, _ int) ([]Appointment, int, error) {
			if !filter.Upcoming || !now.Equal(fixed) {
				t.Errorf("filter=%+v now=%v", filter, now)
			}
			return []Appointment{{ID: "a1"}}, 1, nil
		},
	}
	svc := NewService(repo, mockPatients{}, mockUsers{}, nil, nil, "FHK", zerolog.Nop())
	svc.now = func() time.Time { return fixed }

	page, err := svc.ListAppointments(context.Background(), "o1", ListFilter{Upcoming: true}, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListAppointments: %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("items = %v", page.Items)
	}
}
