package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event routing keys
const (
	EventUserRegistered = "user.registered"

	EventPatientCreated = "patient.created"
	EventPatientUpdated = "patient.updated"
	EventPatientDeleted = "patient.deleted"

	EventMedicalHistoryCreated = "medical_history.created"
	EventMedicalHistoryUpdated = "medical_history.updated"
	EventMedicalHistoryDeleted = "medical_history.deleted"

	EventMedicationCreated = "medication.created"
	EventMedicationUpdated = "medication.updated"
	EventMedicationDeleted = "medication.deleted"

	EventAppointmentScheduled = "appointment.scheduled"
	EventAppointmentUpdated   = "appointment.updated"
	EventAppointmentCancelled = "appointment.cancelled"

	EventDocumentUploaded = "document.uploaded"
	EventDocumentDeleted  = "document.deleted"
)

// ServiceName is stamped on every event.
const ServiceName = "health-keeper-api"

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
}

// UserRegisteredEvent is emitted after a successful registration.
type UserRegisteredEvent struct {
	BaseEvent
	Data UserRegisteredData `json:"data"`
}

type UserRegisteredData struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordEvent describes a change to an owned health record. PatientID is
// empty for patient events themselves.
type RecordEvent struct {
	BaseEvent
	Data RecordEventData `json:"data"`
}

type RecordEventData struct {
	Resource  string            `json:"resource"`
	RecordID  string            `json:"record_id"`
	OwnerID   string            `json:"owner_id"`
	PatientID string            `json:"patient_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	ChangedAt time.Time         `json:"changed_at"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		ServiceName: ServiceName,
	}
}

// NewRecordEvent builds a RecordEvent stamped with the current time.
func NewRecordEvent(eventType, resource, recordID, ownerID, patientID string, fields map[string]string) RecordEvent {
	base := NewBaseEvent(eventType)
	return RecordEvent{
		BaseEvent: base,
		Data: RecordEventData{
			Resource:  resource,
			RecordID:  recordID,
			OwnerID:   ownerID,
			PatientID: patientID,
			Fields:    fields,
			ChangedAt: base.Timestamp,
		},
	}
}

// Emit publishes a record event and logs, rather than returns, a failure.
// A nil publisher drops the event.
func Emit(ctx context.Context, pub PublisherInterface, logger zerolog.Logger, event RecordEvent) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event.EventType, event); err != nil {
		logger.Warn().Err(err).
			Str("event_type", event.EventType).
			Str("record_id", event.Data.RecordID).
			Msg("failed to publish event")
	}
}
