package report

import (
	"errors"
	"time"

	"github.com/family-health-keeper/backend/internal/patient"
)

var ErrPatientNotFound = errors.New("patient not found")

// UpcomingLimit caps the appointments listed in a patient summary.
const UpcomingLimit = 5

type Counts struct {
	MedicalHistory       int `json:"medical_history"`
	Medications          int `json:"medications"`
	ActiveMedications    int `json:"active_medications"`
	Appointments         int `json:"appointments"`
	UpcomingAppointments int `json:"upcoming_appointments"`
	Documents            int `json:"documents"`
}

type Condition struct {
	ID            string  `json:"id"`
	Condition     string  `json:"condition"`
	Status        string  `json:"status"`
	DiagnosisDate *string `json:"diagnosis_date,omitempty"`
}

type Medication struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Dosage    string  `json:"dosage,omitempty"`
	Frequency string  `json:"frequency,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

type Appointment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	DoctorName  string    `json:"doctor_name,omitempty"`
	Location    string    `json:"location,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// PatientSummary is the per-patient health report.
type PatientSummary struct {
	Patient              *patient.Patient `json:"patient"`
	Counts               Counts           `json:"counts"`
	ActiveConditions     []Condition      `json:"active_conditions"`
	ActiveMedications    []Medication     `json:"active_medications"`
	UpcomingAppointments []Appointment    `json:"upcoming_appointments"`
	GeneratedAt          time.Time        `json:"generated_at"`
}

// Overview totals every record the caller owns.
type Overview struct {
	Patients             int       `json:"patients"`
	ActiveMedications    int       `json:"active_medications"`
	UpcomingAppointments int       `json:"upcoming_appointments"`
	Documents            int       `json:"documents"`
	GeneratedAt          time.Time `json:"generated_at"`
}
