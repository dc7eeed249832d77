package patient

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/family-health-keeper/backend/internal/db"
)

// BloodTypes lists the accepted blood_type values.
var BloodTypes = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"AB+": true, "AB-": true, "O+": true, "O-": true,
}

// Patient is a family member whose health records are kept by the owner.
type Patient struct {
	ID                    string     `json:"id"`
	OwnerID               string     `json:"owner_id"`
	FullName              string     `json:"full_name"`
	DateOfBirth           *string    `json:"date_of_birth,omitempty"`
	Gender                string     `json:"gender,omitempty"`
	BloodType             string     `json:"blood_type,omitempty"`
	Relationship          string     `json:"relationship,omitempty"`
	Phone                 string     `json:"phone,omitempty"`
	Email                 string     `json:"email,omitempty"`
	Allergies             string     `json:"allergies,omitempty"`
	ChronicConditions     string     `json:"chronic_conditions,omitempty"`
	EmergencyContactName  string     `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string     `json:"emergency_contact_phone,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             *time.Time `json:"updated_at,omitempty"`
}

// CreatePatientRequest represents the request to create a new patient
type CreatePatientRequest struct {
	FullName              string `json:"full_name"`
	DateOfBirth           string `json:"date_of_birth"` // YYYY-MM-DD
	Gender                string `json:"gender"`
	BloodType             string `json:"blood_type"`
	Relationship          string `json:"relationship"`
	Phone                 string `json:"phone"`
	Email                 string `json:"email"`
	Allergies             string `json:"allergies"`
	ChronicConditions     string `json:"chronic_conditions"`
	EmergencyContactName  string `json:"emergency_contact_name"`
	EmergencyContactPhone string `json:"emergency_contact_phone"`
	Notes                 string `json:"notes"`
}

// UpdatePatientRequest represents a partial update; nil fields are left unchanged
type UpdatePatientRequest struct {
	FullName              *string `json:"full_name,omitempty"`
	DateOfBirth           *string `json:"date_of_birth,omitempty"`
	Gender                *string `json:"gender,omitempty"`
	BloodType             *string `json:"blood_type,omitempty"`
	Relationship          *string `json:"relationship,omitempty"`
	Phone                 *string `json:"phone,omitempty"`
	Email                 *string `json:"email,omitempty"`
	Allergies             *string `json:"allergies,omitempty"`
	ChronicConditions     *string `json:"chronic_conditions,omitempty"`
	EmergencyContactName  *string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string `json:"emergency_contact_phone,omitempty"`
	Notes                 *string `json:"notes,omitempty"`
}

// ListFilter narrows a patient listing.
type ListFilter struct {
	Search string
}

func (r *CreatePatientRequest) Validate(now time.Time) error {
	r.FullName = strings.TrimSpace(r.FullName)
	if r.FullName == "" {
		return fmt.Errorf("%w: full_name is required", ErrValidation)
	}
	return validateCommon(&r.DateOfBirth, &r.BloodType, &r.Email, now)
}

func (r *UpdatePatientRequest) Validate(now time.Time) error {
	if r.FullName != nil {
		name := strings.TrimSpace(*r.FullName)
		if name == "" {
			return fmt.Errorf("%w: full_name cannot be empty", ErrValidation)
		}
		r.FullName = &name
	}
	var dob, blood, email string
	if r.DateOfBirth != nil {
		dob = *r.DateOfBirth
	}
	if r.BloodType != nil {
		blood = *r.BloodType
	}
	if r.Email != nil {
		email = *r.Email
	}
	if err := validateCommon(&dob, &blood, &email, now); err != nil {
		return err
	}
	if r.BloodType != nil {
		r.BloodType = &blood
	}
	return nil
}

func validateCommon(dob, bloodType, email *string, now time.Time) error {
	if *dob != "" {
		d, err := db.ParseDate(*dob)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
		if d.After(now) {
			return fmt.Errorf("%w: date_of_birth cannot be in the future", ErrValidation)
		}
	}
	if *bloodType != "" {
		*bloodType = strings.ToUpper(strings.TrimSpace(*bloodType))
		if !BloodTypes[*bloodType] {
			return fmt.Errorf("%w: invalid blood_type %q", ErrValidation, *bloodType)
		}
	}
	if *email != "" {
		if _, err := mail.ParseAddress(*email); err != nil {
			return fmt.Errorf("%w: invalid email", ErrValidation)
		}
	}
	return nil
}
