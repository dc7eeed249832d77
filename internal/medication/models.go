package medication

import (
	"fmt"
	"strings"
	"time"

	"github.com/family-health-keeper/backend/internal/db"
)

// Medication is a prescription or supplement taken by a patient.
type Medication struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	PatientID    string     `json:"patient_id"`
	Name         string     `json:"name"`
	Dosage       string     `json:"dosage,omitempty"`
	Frequency    string     `json:"frequency,omitempty"`
	StartDate    *string    `json:"start_date,omitempty"`
	EndDate      *string    `json:"end_date,omitempty"`
	PrescribedBy string     `json:"prescribed_by,omitempty"`
	Instructions string     `json:"instructions,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type CreateMedicationRequest struct {
	PatientID    string `json:"patient_id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	PrescribedBy string `json:"prescribed_by"`
	Instructions string `json:"instructions"`
	IsActive     *bool  `json:"is_active,omitempty"`
}

type UpdateMedicationRequest struct {
	Name         *string `json:"name,omitempty"`
	Dosage       *string `json:"dosage,omitempty"`
	Frequency    *string `json:"frequency,omitempty"`
	StartDate    *string `json:"start_date,omitempty"`
	EndDate      *string `json:"end_date,omitempty"`
	PrescribedBy *string `json:"prescribed_by,omitempty"`
	Instructions *string `json:"instructions,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// ListFilter narrows a medication listing. Active is nil when the caller
// did not filter on it.
type ListFilter struct {
	PatientID string
	Active    *bool
}

func (r *CreateMedicationRequest) Validate() error {
	r.PatientID = strings.TrimSpace(r.PatientID)
	r.Name = strings.TrimSpace(r.Name)
	if r.PatientID == "" {
		return fmt.Errorf("%w: patient_id is required", ErrValidation)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return validateRange(r.StartDate, r.EndDate)
}

func (r *UpdateMedicationRequest) Validate() error {
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		if n == "" {
			return fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		r.Name = &n
	}
	return nil
}

// validateRange checks both dates and that end is not before start.
func validateRange(start, end string) error {
	s, err := db.ParseDate(start)
	if err != nil {
		return fmt.Errorf("%w: start_date: %s", ErrValidation, err.Error())
	}
	e, err := db.ParseDate(end)
	if err != nil {
		return fmt.Errorf("%w: end_date: %s", ErrValidation, err.Error())
	}
	if s != nil && e != nil && e.Before(*s) {
		return fmt.Errorf("%w: end_date must not be before start_date", ErrValidation)
	}
	return nil
}
