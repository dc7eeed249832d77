package appointment

import (
	"context"

	"github.com/family-health-keeper/backend/internal/pagination"
)

// ServiceInterface defines the contract for appointment operations
type ServiceInterface interface {
	CreateAppointment(ctx context.Context, ownerID string, req CreateAppointmentRequest) (*Appointment, error)
	GetAppointment(ctx context.Context, ownerID, id string) (*Appointment, error)
	ListAppointments(ctx context.Context, ownerID string, filter ListFilter, params pagination.Params) (*pagination.Page[Appointment], error)
	UpdateAppointment(ctx context.Context, ownerID, id string, req UpdateAppointmentRequest) (*Appointment, error)
	DeleteAppointment(ctx context.Context, ownerID, id string) error
}
