package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/family-health-keeper/backend/internal/db"
	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const documentColumns = `id, owner_id, patient_id, file_name, content_type, size_bytes, sha256,
	storage_path, category, description, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var d Document
	var patientID, description sql.NullString
	if err := row.Scan(&d.ID, &d.OwnerID, &patientID, &d.FileName, &d.ContentType, &d.SizeBytes, &d.SHA256,
		&d.StoragePath, &d.Category, &description, &d.CreatedAt); err != nil {
		return nil, err
	}
	if patientID.Valid {
		d.PatientID = &patientID.String
	}
	d.Description = description.String
	return &d, nil
}

func (r *Repository) Create(ctx context.Context, doc *Document) (*Document, error) {
	var patientID sql.NullString
	if doc.PatientID != nil {
		patientID = db.NullString(*doc.PatientID)
	}

	query := `
		INSERT INTO documents
		(id, owner_id, patient_id, file_name, content_type, size_bytes, sha256, storage_path, category, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + documentColumns

	d, err := scanDocument(r.db.QueryRowContext(ctx, query,
		doc.ID, doc.OwnerID, patientID, doc.FileName, doc.ContentType, doc.SizeBytes, doc.SHA256,
		doc.StoragePath, doc.Category, db.NullString(doc.Description), doc.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	return d, nil
}

func (r *Repository) Get(ctx context.Context, ownerID, id string) (*Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrDocumentNotFound
	}
	d, err := scanDocument(r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`,
		id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return d, nil
}

func (r *Repository) List(ctx context.Context, ownerID string, filter ListFilter, limit, offset int) ([]Document, int, error) {
	where := `owner_id = $1 AND deleted_at IS NULL`
	args := []any{ownerID}
	if filter.PatientID != "" {
		if _, err := uuid.Parse(filter.PatientID); err != nil {
			return nil, 0, nil
		}
		args = append(args, filter.PatientID)
		where += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(` AND category = $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		documentColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, total, nil
}

func (r *Repository) SoftDelete(ctx context.Context, ownerID, id string) (*Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrDocumentNotFound
	}
	d, err := scanDocument(r.db.QueryRowContext(ctx,
		`UPDATE documents SET deleted_at = NOW() WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
		RETURNING `+documentColumns,
		id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete document: %w", err)
	}
	return d, nil
}
