package patient

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

const patientColumns = `id, owner_id, full_name, date_of_birth, gender, blood_type, relationship,
	phone, email, allergies, chronic_conditions, emergency_contact_name, emergency_contact_phone,
	notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*Patient, error) {
	var p Patient
	var dob, updatedAt sql.NullTime
	var gender, bloodType, relationship, phone, email sql.NullString
	var allergies, chronic, ecName, ecPhone, notes sql.NullString

	err := row.Scan(
		&p.ID, &p.OwnerID, &p.FullName, &dob, &gender, &bloodType, &relationship,
		&phone, &email, &allergies, &chronic, &ecName, &ecPhone,
		&notes, &p.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.DateOfBirth = db.NullDate(dob)
	p.UpdatedAt = db.NullTimePtr(updatedAt)
	p.Gender = gender.String
	p.BloodType = bloodType.String
	p.Relationship = relationship.String
	p.Phone = phone.String
	p.Email = email.String
	p.Allergies = allergies.String
	p.ChronicConditions = chronic.String
	p.EmergencyContactName = ecName.String
	p.EmergencyContactPhone = ecPhone.String
	p.Notes = notes.String
	return &p, nil
}

func dateArg(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *Repository) Create(ctx context.Context, ownerID string, req CreatePatientRequest) (*Patient, error) {
	query := `
		INSERT INTO patients
		(id, owner_id, full_name, date_of_birth, gender, blood_type, relationship, phone, email,
		 allergies, chronic_conditions, emergency_contact_name, emergency_contact_phone, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + patientColumns

	p, err := scanPatient(r.db.QueryRowContext(ctx, query,
		uuid.New(),
		ownerID,
		req.FullName,
		dateArg(req.DateOfBirth),
		db.NullString(req.Gender),
		db.NullString(req.BloodType),
		db.NullString(req.Relationship),
		db.NullString(req.Phone),
		db.NullString(req.Email),
		db.NullString(req.Allergies),
		db.NullString(req.ChronicConditions),
		db.NullString(req.EmergencyContactName),
		db.NullString(req.EmergencyContactPhone),
		db.NullString(req.Notes),
		time.Now().UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert patient: %w", err)
	}
	return p, nil
}

func (r *Repository) Get(ctx context.Context, ownerID, id string) (*Patient, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrPatientNotFound
	}
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	p, err := scanPatient(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query patient: %w", err)
	}
	return p, nil
}

func (r *Repository) List(ctx context.Context, ownerID string, filter ListFilter, limit, offset int) ([]Patient, int, error) {
	where := `owner_id = $1 AND deleted_at IS NULL`
	args := []any{ownerID}
	if filter.Search != "" {
		args = append(args, db.ContainsPattern(filter.Search))
		where += fmt.Sprintf(` AND full_name ILIKE $%d ESCAPE '\'`, len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE %s ORDER BY full_name ASC, created_at DESC LIMIT $%d OFFSET $%d`,
		patientColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, *p)
	}
	return patients, total, rows.Err()
}

func (r *Repository) Update(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*Patient, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrPatientNotFound
	}

	var set db.SetClause
	if req.FullName != nil {
		set.Add("full_name", *req.FullName)
	}
	if req.DateOfBirth != nil {
		set.Add("date_of_birth", dateArg(*req.DateOfBirth))
	}
	text := []struct {
		column string
		value  *string
	}{
		{"gender", req.Gender},
		{"blood_type", req.BloodType},
		{"relationship", req.Relationship},
		{"phone", req.Phone},
		{"email", req.Email},
		{"allergies", req.Allergies},
		{"chronic_conditions", req.ChronicConditions},
		{"emergency_contact_name", req.EmergencyContactName},
		{"emergency_contact_phone", req.EmergencyContactPhone},
		{"notes", req.Notes},
	}
	for _, f := range text {
		if f.value != nil {
			set.Add(f.column, db.NullString(*f.value))
		}
	}
	if set.Empty() {
		return r.Get(ctx, ownerID, id)
	}
	set.Add("updated_at", time.Now().UTC())

	query := fmt.Sprintf(`UPDATE patients SET %s WHERE id = %s AND owner_id = %s AND deleted_at IS NULL RETURNING %s`,
		set.SQL(), set.Arg(id), set.Arg(ownerID), patientColumns)

	p, err := scanPatient(r.db.QueryRowContext(ctx, query, set.Args()...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return p, nil
}

// SoftDelete marks the patient and every record attached to it as deleted.
func (r *Repository) SoftDelete(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrPatientNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE patients SET deleted_at = $1 WHERE id = $2 AND owner_id = $3 AND deleted_at IS NULL`,
		now, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPatientNotFound
	}

	for _, table := range []string{"medical_history", "medications", "appointments", "documents"} {
		_, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET deleted_at = $1 WHERE patient_id = $2 AND deleted_at IS NULL`,
			now, id)
		if err != nil {
			return fmt.Errorf("failed to delete %s for patient: %w", table, err)
		}
	}

	return tx.Commit()
}

// Exists reports whether ownerID owns a live patient with id.
func (r *Repository) Exists(ctx context.Context, ownerID, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM patients WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL)`,
		id, ownerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check patient: %w", err)
	}
	return exists, nil
}
