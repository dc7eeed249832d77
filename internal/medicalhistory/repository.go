package medicalhistory

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

const entryColumns = `id, owner_id, patient_id, condition, diagnosis_date, status, treatment, doctor_name, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var diagnosis, updatedAt sql.NullTime
	var treatment, doctor, notes sql.NullString

	if err := row.Scan(&e.ID, &e.OwnerID, &e.PatientID, &e.Condition, &diagnosis, &e.Status,
		&treatment, &doctor, &notes, &e.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	e.DiagnosisDate = db.NullDate(diagnosis)
	e.UpdatedAt = db.NullTimePtr(updatedAt)
	e.Treatment = treatment.String
	e.DoctorName = doctor.String
	e.Notes = notes.String
	return &e, nil
}

func nullableDate(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *Repository) Create(ctx context.Context, ownerID string, req CreateEntryRequest) (*Entry, error) {
	query := `
		INSERT INTO medical_history
		(id, owner_id, patient_id, condition, diagnosis_date, status, treatment, doctor_name, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + entryColumns

	e, err := scanEntry(r.db.QueryRowContext(ctx, query,
		uuid.New(), ownerID, req.PatientID, req.Condition, nullableDate(req.DiagnosisDate), req.Status,
		db.NullString(req.Treatment), db.NullString(req.DoctorName), db.NullString(req.Notes),
		time.Now().UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert medical history: %w", err)
	}
	return e, nil
}

func (r *Repository) Get(ctx context.Context, ownerID, id string) (*Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrEntryNotFound
	}
	e, err := scanEntry(r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM medical_history WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`,
		id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query medical history: %w", err)
	}
	return e, nil
}

func (r *Repository) List(ctx context.Context, ownerID string, filter ListFilter, limit, offset int) ([]Entry, int, error) {
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

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM medical_history WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count medical history: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM medical_history WHERE %s
		ORDER BY diagnosis_date DESC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d`,
		entryColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query medical history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan medical history: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, total, rows.Err()
}

func (r *Repository) Update(ctx context.Context, ownerID, id string, req UpdateEntryRequest) (*Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrEntryNotFound
	}

	var set db.SetClause
	if req.Condition != nil {
		set.Add("condition", *req.Condition)
	}
	if req.DiagnosisDate != nil {
		set.Add("diagnosis_date", nullableDate(*req.DiagnosisDate))
	}
	if req.Status != nil {
		set.Add("status", *req.Status)
	}
	if req.Treatment != nil {
		set.Add("treatment", db.NullString(*req.Treatment))
	}
	if req.DoctorName != nil {
		set.Add("doctor_name", db.NullString(*req.DoctorName))
	}
	if req.Notes != nil {
		set.Add("notes", db.NullString(*req.Notes))
	}
	if set.Empty() {
		return r.Get(ctx, ownerID, id)
	}
	set.Add("updated_at", time.Now().UTC())

	query := fmt.Sprintf(`UPDATE medical_history SET %s WHERE id = %s AND owner_id = %s AND deleted_at IS NULL RETURNING %s`,
		set.SQL(), set.Arg(id), set.Arg(ownerID), entryColumns)

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, set.Args()...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update medical history: %w", err)
	}
	return e, nil
}

func (r *Repository) SoftDelete(ctx context.Context, ownerID, id string) (*Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrEntryNotFound
	}
	e, err := scanEntry(r.db.QueryRowContext(ctx,
		`UPDATE medical_history SET deleted_at = $1 WHERE id = $2 AND owner_id = $3 AND deleted_at IS NULL RETURNING `+entryColumns,
		time.Now().UTC(), id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete medical history: %w", err)
	}
	return e, nil
}
