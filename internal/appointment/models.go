package appointment

import (
	"fmt"
	"strings"
	"time"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// DefaultDurationMinutes applies when a request omits duration_minutes.
const DefaultDurationMinutes = 30

var statuses = map[string]bool{StatusScheduled: true, StatusCompleted: true, StatusCancelled: true}

// Appointment is a scheduled visit for a patient.
type Appointment struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	PatientID       string     `json:"patient_id"`
	Title           string     `json:"title"`
	DoctorName      string     `json:"doctor_name,omitempty"`
	Location        string     `json:"location,omitempty"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

type CreateAppointmentRequest struct {
	PatientID       string `json:"patient_id"`
	Title           string `json:"title"`
	DoctorName      string `json:"doctor_name"`
	Location        string `json:"location"`
	ScheduledAt     string `json:"scheduled_at"` // RFC3339
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	Notes           string `json:"notes"`

	scheduledAt time.Time
}

type UpdateAppointmentRequest struct {
	Title           *string `json:"title,omitempty"`
	DoctorName      *string `json:"doctor_name,omitempty"`
	Location        *string `json:"location,omitempty"`
	ScheduledAt     *string `json:"scheduled_at,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Status          *string `json:"status,omitempty"`
	Notes           *string `json:"notes,omitempty"`

	scheduledAt *time.Time
}

// ListFilter narrows an appointment listing. Upcoming keeps scheduled
// appointments whose start is not in the past.
type ListFilter struct {
	PatientID string
	Status    string
	Upcoming  bool
}

func (r *CreateAppointmentRequest) Validate() error {
	r.PatientID = strings.TrimSpace(r.PatientID)
	r.Title = strings.TrimSpace(r.Title)
	if r.PatientID == "" {
		return fmt.Errorf("%w: patient_id is required", ErrValidation)
	}
	if r.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if r.ScheduledAt == "" {
		return fmt.Errorf("%w: scheduled_at is required", ErrValidation)
	}
	t, err := parseTime(r.ScheduledAt)
	if err != nil {
		return err
	}
	r.scheduledAt = t

	if r.DurationMinutes == 0 {
		r.DurationMinutes = DefaultDurationMinutes
	}
	if err := validateDuration(r.DurationMinutes); err != nil {
		return err
	}
	if r.Status == "" {
		r.Status = StatusScheduled
	}
	return validateStatus(&r.Status)
}

func (r *UpdateAppointmentRequest) Validate() error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		r.Title = &title
	}
	if r.ScheduledAt != nil {
		t, err := parseTime(*r.ScheduledAt)
		if err != nil {
			return err
		}
		r.scheduledAt = &t
	}
	if r.DurationMinutes != nil {
		if err := validateDuration(*r.DurationMinutes); err != nil {
			return err
		}
	}
	if r.Status != nil {
		return validateStatus(r.Status)
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: scheduled_at must be an RFC3339 timestamp", ErrValidation)
	}
	return t.UTC(), nil
}

func validateDuration(minutes int) error {
	if minutes <= 0 || minutes > 24*60 {
		return fmt.Errorf("%w: duration_minutes must be between 1 and 1440", ErrValidation)
	}
	return nil
}

func validateStatus(status *string) error {
	*status = strings.ToLower(strings.TrimSpace(*status))
	if !statuses[*status] {
		return fmt.Errorf("%w: status must be one of scheduled, completed, cancelled", ErrValidation)
	}
	return nil
}
