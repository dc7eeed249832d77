package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/family-health-keeper/backend/internal/db"
	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const appointmentColumns = `id, owner_id, patient_id, title, doctor_name, location, scheduled_at,
	duration_minutes, status, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var a Appointment
	var doctor, location, notes sql.NullString
	var updatedAt sql.NullTime

	if err := row.Scan(&a.ID, &a.OwnerID, &a.PatientID, &a.Title, &doctor, &location, &a.ScheduledAt,
		&a.DurationMinutes, &a.Status, &notes, &a.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	a.DoctorName = doctor.String
	a.Location = location.String
	a.Notes = notes.String
	a.ScheduledAt = a.ScheduledAt.UTC()
	a.UpdatedAt = db.NullTimePtr(updatedAt)
	return &a, nil
}

func (r *Repository) Create(ctx context.Context, ownerID string, req CreateAppointmentRequest) (*Appointment, error) {
	query := `
		INSERT INTO appointments
		(id, owner_id, patient_id, title, doctor_name, location, scheduled_at, duration_minutes, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + appointmentColumns

	a, err := scanAppointment(r.db.QueryRowContext(ctx, query,
		uuid.New(), ownerID, req.PatientID, req.Title,
		db.NullString(req.DoctorName), db.NullString(req.Location),
		req.scheduledAt, req.DurationMinutes, req.Status, db.NullString(req.Notes),
		time.Now().UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert appointment: %w", err)
	}
	return a, nil
}

func (r *Repository) Get(ctx context.Context, ownerID, id string) (*Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAppointmentNotFound
	}
	a, err := scanAppointment(r.db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`,
		id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query appointment: %w", err)
	}
	return a, nil
}

func (r *Repository) List(ctx context.Context, ownerID string, filter ListFilter, now time.Time, limit, offset int) ([]Appointment, int, error) {
	where := `owner_id = $1 AND deleted_at IS NULL`
	args := []any{ownerID}
	if filter.PatientID != "" {
		if _, err := uuid.Parse(filter.PatientID); err != nil {
			return nil, 0, nil
		}
		args = append(args, filter.PatientID)
		where += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	order := `scheduled_at DESC`
	if filter.Upcoming {
		args = append(args, now)
		where += fmt.Sprintf(` AND scheduled_at >= $%d AND status = 'scheduled'`, len(args))
		order = `scheduled_at ASC`
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		appointmentColumns, where, order, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan appointment: %w", err)
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

func (r *Repository) Update(ctx context.Context, ownerID, id string, req UpdateAppointmentRequest) (*Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAppointmentNotFound
	}

	var set db.SetClause
	if req.Title != nil {
		set.Add("title", *req.Title)
	}
	if req.DoctorName != nil {
		set.Add("doctor_name", db.NullString(*req.DoctorName))
	}
	if req.Location != nil {
		set.Add("location", db.NullString(*req.Location))
	}
	if req.scheduledAt != nil {
		set.Add("scheduled_at", *req.scheduledAt)
	}
	if req.DurationMinutes != nil {
		set.Add("duration_minutes", *req.DurationMinutes)
	}
	if req.Status != nil {
		set.Add("status", *req.Status)
	}
	if req.Notes != nil {
		set.Add("notes", db.NullString(*req.Notes))
	}
	if set.Empty() {
		return r.Get(ctx, ownerID, id)
	}
	set.Add("updated_at", time.Now().UTC())

	query := fmt.Sprintf(`UPDATE appointments SET %s WHERE id = %s AND owner_id = %s AND deleted_at IS NULL RETURNING %s`,
		set.SQL(), set.Arg(id), set.Arg(ownerID), appointmentColumns)

	a, err := scanAppointment(r.db.QueryRowContext(ctx, query, set.Args()...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return a, nil
}

func (r *Repository) SoftDelete(ctx context.Context, ownerID, id string) (*Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAppointmentNotFound
	}
	a, err := scanAppointment(r.db.QueryRowContext(ctx,
		`UPDATE appointments SET deleted_at = $1 WHERE id = $2 AND owner_id = $3 AND deleted_at IS NULL RETURNING `+appointmentColumns,
		time.Now().UTC(), id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete appointment: %w", err)
	}
	return a, nil
}
