package appointment

import (
	"context"
	"time"

	"github.com/family-health-keeper/backend/internal/patient"
	"github.com/family-health-keeper/backend/internal/users"
)

// RepositoryInterface defines the contract for appointment data access
type RepositoryInterface interface {
	Create(ctx context.Context, ownerID string, req CreateAppointmentRequest) (*Appointment, error)
	Get(ctx context.Context, ownerID, id string) (*Appointment, error)
	List(ctx context.Context, ownerID string, filter ListFilter, now time.Time, limit, offset int) ([]Appointment, int, error)
	Update(ctx context.Context, ownerID, id string, req UpdateAppointmentRequest) (*Appointment, error)
	SoftDelete(ctx context.Context, ownerID, id string) (*Appointment, error)
}

var _ RepositoryInterface = (*Repository)(nil)

// PatientLookup resolves an owned patient.
type PatientLookup interface {
	Get(ctx context.Context, ownerID, id string) (*patient.Patient, error)
}

// UserLookup resolves the account that receives confirmation mails.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

var (
	_ PatientLookup = (*patient.Repository)(nil)
	_ UserLookup    = (*users.Repository)(nil)
)
