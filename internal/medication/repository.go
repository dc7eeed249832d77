package medication

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

const medicationColumns = `id, owner_id, patient_id, name, dosage, frequency, start_date, end_date,
	prescribed_by, instructions, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedication(row rowScanner) (*Medication, error) {
	var m Medication
	var start, end, updatedAt sql.NullTime
	var dosage, frequency, prescribedBy, instructions sql.NullString

	if err := row.Scan(&m.ID, &m.OwnerID, &m.PatientID, &m.Name, &dosage, &frequency, &start, &end,
		&prescribedBy, &instructions, &m.IsActive, &m.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	m.Dosage = dosage.String
	m.Frequency = frequency.String
	m.StartDate = db.NullDate(start)
	m.EndDate = db.NullDate(end)
	m.PrescribedBy = prescribedBy.String
	m.Instructions = instructions.String
	m.UpdatedAt = db.NullTimePtr(updatedAt)
	return &m, nil
}

func nullableDate(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *Repository) Create(ctx context.Context, ownerID string, req CreateMedicationRequest) (*Medication, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	query := `
		INSERT INTO medications
		(id, owner_id, patient_id, name, dosage, frequency, start_date, end_date, prescribed_by, instructions, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + medicationColumns

	m, err := scanMedication(r.db.QueryRowContext(ctx, query,
		uuid.New(), ownerID, req.PatientID, req.Name,
		db.NullString(req.Dosage), db.NullString(req.Frequency),
		nullableDate(req.StartDate), nullableDate(req.EndDate),
		db.NullString(req.PrescribedBy), db.NullString(req.Instructions),
		active, time.Now().UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert medication: %w", err)
	}
	return m, nil
}

func (r *Repository) Get(ctx context.Context, ownerID, id string) (*Medication, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrMedicationNotFound
	}
	m, err := scanMedication(r.db.QueryRowContext(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`,
		id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMedicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query medication: %w", err)
	}
	return m, nil
}

func (r *Repository) List(ctx context.Context, ownerID string, filter ListFilter, limit, offset int) ([]Medication, int, error) {
	where := `owner_id = $1 AND deleted_at IS NULL`
	args := []any{ownerID}
	if filter.PatientID != "" {
		if _, err := uuid.Parse(filter.PatientID); err != nil {
			return nil, 0, nil
		}
		args = append(args, filter.PatientID)
		where += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where += fmt.Sprintf(` AND is_active = $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM medications WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count medications: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM medications WHERE %s
		ORDER BY is_active DESC, start_date DESC NULLS LAST, name ASC LIMIT $%d OFFSET $%d`,
		medicationColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query medications: %w", err)
	}
	defer rows.Close()

	var meds []Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan medication: %w", err)
		}
		meds = append(meds, *m)
	}
	return meds, total, rows.Err()
}

func (r *Repository) Update(ctx context.Context, ownerID, id string, req UpdateMedicationRequest) (*Medication, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrMedicationNotFound
	}

	var set db.SetClause
	if req.Name != nil {
		set.Add("name", *req.Name)
	}
	if req.Dosage != nil {
		set.Add("dosage", db.NullString(*req.Dosage))
	}
	if req.Frequency != nil {
		set.Add("frequency", db.NullString(*req.Frequency))
	}
	if req.StartDate != nil {
		set.Add("start_date", nullableDate(*req.StartDate))
	}
	if req.EndDate != nil {
		set.Add("end_date", nullableDate(*req.EndDate))
	}
	if req.PrescribedBy != nil {
		set.Add("prescribed_by", db.NullString(*req.PrescribedBy))
	}
	if req.Instructions != nil {
		set.Add("instructions", db.NullString(*req.Instructions))
	}
	if req.IsActive != nil {
		set.Add("is_active", *req.IsActive)
	}
	if set.Empty() {
		return r.Get(ctx, ownerID, id)
	}
	set.Add("updated_at", time.Now().UTC())

	query := fmt.Sprintf(`UPDATE medications SET %s WHERE id = %s AND owner_id = %s AND deleted_at IS NULL RETURNING %s`,
		set.SQL(), set.Arg(id), set.Arg(ownerID), medicationColumns)

	m, err := scanMedication(r.db.QueryRowContext(ctx, query, set.Args()...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMedicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update medication: %w", err)
	}
	return m, nil
}

func (r *Repository) SoftDelete(ctx context.Context, ownerID, id string) (*Medication, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrMedicationNotFound
	}
	m, err := scanMedication(r.db.QueryRowContext(ctx,
		`UPDATE medications SET deleted_at = $1 WHERE id = $2 AND owner_id = $3 AND deleted_at IS NULL RETURNING `+medicationColumns,
		time.Now().UTC(), id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMedicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete medication: %w", err)
	}
	return m, nil
}
