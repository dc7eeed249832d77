package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRetention is how long soft-deleted records are kept.
const DefaultRetention = 3 * 365 * 24 * time.Hour

// purgeOrder lists child tables before the tables they reference.
var purgeOrder = []string{"medical_history", "medications", "appointments"}

// CleanupResult summarizes a purge run.
type CleanupResult struct {
	Deleted      map[string]int64
	RemovedFiles []string
}

// CleanupService permanently deletes records that were soft-deleted
// before the retention cutoff.
type CleanupService struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewCleanupService(db *sql.DB, logger zerolog.Logger) *CleanupService {
	return &CleanupService{db: db, logger: logger}
}

// CountExpired returns how many soft-deleted patients are past retention.
func (s *CleanupService) CountExpired(ctx context.Context, retention time.Duration) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM patients WHERE deleted_at IS NOT NULL AND deleted_at < $1`,
		time.Now().Add(-retention),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count expired patients: %w", err)
	}
	return count, nil
}

// PurgeExpired deletes expired rows in a single transaction. Storage paths
// of purged documents are returned so the caller can remove the files.
func (s *CleanupService) PurgeExpired(ctx context.Context, retention time.Duration) (*CleanupResult, error) {
	cutoff := time.Now().Add(-retention)
	s.logger.Info().Time("cutoff", cutoff).Msg("purging soft-deleted records")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result := &CleanupResult{Deleted: map[string]int64{}}

	rows, err := tx.QueryContext(ctx,
		`DELETE FROM documents WHERE deleted_at IS NOT NULL AND deleted_at < $1 RETURNING storage_path`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to purge documents: %w", err)
	}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan document path: %w", err)
		}
		result.RemovedFiles = append(result.RemovedFiles, path)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purged documents: %w", err)
	}
	result.Deleted["documents"] = int64(len(result.RemovedFiles))

	for _, table := range purgeOrder {
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE deleted_at IS NOT NULL AND deleted_at < $1`, table),
			cutoff,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to purge %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		result.Deleted[table] = n
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM patients p
		WHERE p.deleted_at IS NOT NULL AND p.deleted_at < $1
		AND NOT EXISTS (SELECT 1 FROM medical_history c WHERE c.patient_id = p.id)
		AND NOT EXISTS (SELECT 1 FROM medications c WHERE c.patient_id = p.id)
		AND NOT EXISTS (SELECT 1 FROM appointments c WHERE c.patient_id = p.id)
		AND NOT EXISTS (SELECT 1 FROM documents c WHERE c.patient_id = p.id)
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to purge patients: %w", err)
	}
	n, _ := res.RowsAffected()
	result.Deleted["patients"] = n

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purge: %w", err)
	}

	for table, count := range result.Deleted {
		s.logger.Info().Str("table", table).Int64("rows", count).Msg("purged")
	}
	return result, nil
}
