package medicalhistory

import (
	"fmt"
	"strings"
	"time"

	"github.com/family-health-keeper/backend/internal/db"
)

// Condition statuses.
const (
	StatusActive   = "active"
	StatusResolved = "resolved"
	StatusChronic  = "chronic"
)

var statuses = map[string]bool{StatusActive: true, StatusResolved: true, StatusChronic: true}

// Entry is one diagnosed condition in a patient's history.
type Entry struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner_id"`
	PatientID     string     `json:"patient_id"`
	Condition     string     `json:"condition"`
	DiagnosisDate *string    `json:"diagnosis_date,omitempty"`
	Status        string     `json:"status"`
	Treatment     string     `json:"treatment,omitempty"`
	DoctorName    string     `json:"doctor_name,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

type CreateEntryRequest struct {
	PatientID     string `json:"patient_id"`
	Condition     string `json:"condition"`
	DiagnosisDate string `json:"diagnosis_date"`
	Status        string `json:"status"`
	Treatment     string `json:"treatment"`
	DoctorName    string `json:"doctor_name"`
	Notes         string `json:"notes"`
}

type UpdateEntryRequest struct {
	Condition     *string `json:"condition,omitempty"`
	DiagnosisDate *string `json:"diagnosis_date,omitempty"`
	Status        *string `json:"status,omitempty"`
	Treatment     *string `json:"treatment,omitempty"`
	DoctorName    *string `json:"doctor_name,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// ListFilter narrows a history listing. Empty fields are ignored.
type ListFilter struct {
	PatientID string
	Status    string
}

func (r *CreateEntryRequest) Validate() error {
	r.PatientID = strings.TrimSpace(r.PatientID)
	r.Condition = strings.TrimSpace(r.Condition)
	if r.PatientID == "" {
		return fmt.Errorf("%w: patient_id is required", ErrValidation)
	}
	if r.Condition == "" {
		return fmt.Errorf("%w: condition is required", ErrValidation)
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
	if err := validateStatus(&r.Status); err != nil {
		return err
	}
	return validateDate(r.DiagnosisDate)
}

func (r *UpdateEntryRequest) Validate() error {
	if r.Condition != nil {
		c := strings.TrimSpace(*r.Condition)
		if c == "" {
			return fmt.Errorf("%w: condition cannot be empty", ErrValidation)
		}
		r.Condition = &c
	}
	if r.Status != nil {
		if err := validateStatus(r.Status); err != nil {
			return err
		}
	}
	if r.DiagnosisDate != nil {
		return validateDate(*r.DiagnosisDate)
	}
	return nil
}

func validateStatus(status *string) error {
	*status = strings.ToLower(strings.TrimSpace(*status))
	if !statuses[*status] {
		return fmt.Errorf("%w: status must be one of active, resolved, chronic", ErrValidation)
	}
	return nil
}

func validateDate(s string) error {
	if _, err := db.ParseDate(s); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	return nil
}
