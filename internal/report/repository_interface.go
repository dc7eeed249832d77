package report

import (
	"context"
	"time"

	"github.com/family-health-keeper/backend/internal/patient"
)

// RepositoryInterface defines the read-only aggregate queries behind reports
type RepositoryInterface interface {
	PatientCounts(ctx context.Context, ownerID, patientID string, now time.Time) (*Counts, error)
	ActiveConditions(ctx context.Context, ownerID, patientID string) ([]Condition, error)
	ActiveMedications(ctx context.Context, ownerID, patientID string) ([]Medication, error)
	UpcomingAppointments(ctx context.Context, ownerID, patientID string, now time.Time, limit int) ([]Appointment, error)
	Overview(ctx context.Context, ownerID string, now time.Time) (*Overview, error)
}

var _ RepositoryInterface = (*Repository)(nil)

// PatientLookup loads an owned patient.
type PatientLookup interface {
	Get(ctx context.Context, ownerID, id string) (*patient.Patient, error)
}

var _ PatientLookup = (*patient.Repository)(nil)
