package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, email, full_name, role, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (*User, error) {
	var u User
	var updatedAt sql.NullTime
	dest := append([]any{&u.ID, &u.Email, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &updatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		u.UpdatedAt = &updatedAt.Time
	}
	return &u, nil
}

func (r *Repository) Create(ctx context.Context, email, fullName, role, hashedPassword string) (*User, error) {
	query := `
		INSERT INTO users (id, email, hashed_password, full_name, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, true, $6)
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query,
		uuid.New(), email, hashedPassword, fullName, role, time.Now().UTC(),
	))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

// GetByEmail returns the user and its password hash.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, string, error) {
	query := `SELECT ` + userColumns + `, hashed_password FROM users WHERE email = $1`

	var hash string
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email), &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrUserNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query user: %w", err)
	}
	return u, hash, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

func (r *Repository) UpdateProfile(ctx context.Context, id string, fullName, hashedPassword *string) (*User, error) {
	sets := []string{}
	args := []any{}
	if fullName != nil {
		args = append(args, *fullName)
		sets = append(sets, fmt.Sprintf("full_name = $%d", len(args)))
	}
	if hashedPassword != nil {
		args = append(args, *hashedPassword)
		sets = append(sets, fmt.Sprintf("hashed_password = $%d", len(args)))
	}
	return r.update(ctx, id, sets, args)
}

func (r *Repository) UpdateAdmin(ctx context.Context, id string, isActive *bool, role *string) (*User, error) {
	sets := []string{}
	args := []any{}
	if isActive != nil {
		args = append(args, *isActive)
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if role != nil {
		args = append(args, *role)
		sets = append(sets, fmt.Sprintf("role = $%d", len(args)))
	}
	return r.update(ctx, id, sets, args)
}

func (r *Repository) update(ctx context.Context, id string, sets []string, args []any) (*User, error) {
	if len(sets) == 0 {
		return nil, ErrNoChanges
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}
	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}
