package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/family-health-keeper/backend/internal/db"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) PatientCounts(ctx context.Context, ownerID, patientID string, now time.Time) (*Counts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM medical_history WHERE owner_id = $1 AND patient_id = $2 AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM medications WHERE owner_id = $1 AND patient_id = $2 AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM medications WHERE owner_id = $1 AND patient_id = $2 AND deleted_at IS NULL AND is_active),
			(SELECT COUNT(*) FROM appointments WHERE owner_id = $1 AND patient_id = $2 AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM appointments WHERE owner_id = $1 AND patient_id = $2 AND deleted_at IS NULL
				AND status = 'scheduled' AND scheduled_at >= $3),
			(SELECT COUNT(*) FROM documents WHERE owner_id = $1 AND patient_id = $2 AND deleted_at IS NULL)`

	var c Counts
	err := r.db.QueryRowContext(ctx, query, ownerID, patientID, now).Scan(
		&c.MedicalHistory, &c.Medications, &c.ActiveMedications,
		&c.Appointments, &c.UpcomingAppointments, &c.Documents,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count patient records: %w", err)
	}
	return &c, nil
}

// ActiveConditions returns entries that are active or chronic.
func (r *Repository) ActiveConditions(ctx context.Context, ownerID, patientID string) ([]Condition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, condition, status, diagnosis_date FROM medical_history
		WHERE owner_id = $1 AND patient_id = $2 AND deleted_at IS NULL AND status IN ('active', 'chronic')
		ORDER BY diagnosis_date DESC NULLS LAST, condition ASC`,
		ownerID, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conditions: %w", err)
	}
	defer rows.Close()

	var out []Condition
	for rows.Next() {
		var c Condition
		var diagnosed sql.NullTime
		if err := rows.Scan(&c.ID, &c.Condition, &c.Status, &diagnosed); err != nil {
			return nil, fmt.Errorf("failed to scan condition: %w", err)
		}
		c.DiagnosisDate = db.NullDate(diagnosed)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) ActiveMedications(ctx context.Context, ownerID, patientID string) ([]Medication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, dosage, frequency, end_date FROM medications
		WHERE owner_id = $1 AND patient_id = $2 AND deleted_at IS NULL AND is_active
		ORDER BY name ASC`,
		ownerID, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications: %w", err)
	}
	defer rows.Close()

	var out []Medication
	for rows.Next() {
		var m Medication
		var dosage, frequency sql.NullString
		var end sql.NullTime
		if err := rows.Scan(&m.ID, &m.Name, &dosage, &frequency, &end); err != nil {
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}
		m.Dosage = dosage.String
		m.Frequency = frequency.String
		m.EndDate = db.NullDate(end)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) UpcomingAppointments(ctx context.Context, ownerID, patientID string, now time.Time, limit int) ([]Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, doctor_name, location, scheduled_at FROM appointments
		WHERE owner_id = $1 AND patient_id = $2 AND deleted_at IS NULL
		AND status = 'scheduled' AND scheduled_at >= $3
		ORDER BY scheduled_at ASC LIMIT $4`,
		ownerID, patientID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		var doctor, location sql.NullString
		if err := rows.Scan(&a.ID, &a.Title, &doctor, &location, &a.ScheduledAt); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		a.DoctorName = doctor.String
		a.Location = location.String
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) Overview(ctx context.Context, ownerID string, now time.Time) (*Overview, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM patients WHERE owner_id = $1 AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM medications WHERE owner_id = $1 AND deleted_at IS NULL AND is_active),
			(SELECT COUNT(*) FROM appointments WHERE owner_id = $1 AND deleted_at IS NULL
				AND status = 'scheduled' AND scheduled_at >= $2),
			(SELECT COUNT(*) FROM documents WHERE owner_id = $1 AND deleted_at IS NULL)`

	var o Overview
	if err := r.db.QueryRowContext(ctx, query, ownerID, now).Scan(
		&o.Patients, &o.ActiveMedications, &o.UpcomingAppointments, &o.Documents,
	); err != nil {
		return nil, fmt.Errorf("failed to build overview: %w", err)
	}
	return &o, nil
}
