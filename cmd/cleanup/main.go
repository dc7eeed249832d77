package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/family-health-keeper/backend/internal/config"
	"github.com/family-health-keeper/backend/internal/db"
	"github.com/family-health-keeper/backend/internal/document"
	"github.com/family-health-keeper/backend/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	var (
		retention time.Duration
		dryRun    bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:          "cleanup",
		Short:        "Permanently delete soft-deleted records past the retention period",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(retention, timeout, dryRun)
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", db.DefaultRetention, "how long soft-deleted records are kept")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall job deadline")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report how many patients are eligible")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(retention, timeout time.Duration, dryRun bool) error {
	if retention <= 0 {
		return fmt.Errorf("retention must be positive, got %s", retention)
	}

	s, err := config.Get()
	if err != nil {
		return err
	}
	logger := logging.New(s.LogLevel, s.Environment).With().Str("job", "cleanup").Logger()
	logger.Info().Dur("retention", retention).Msg("cleanup job starting")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	database, err := db.Connect(ctx, s.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	cleanup := db.NewCleanupService(database, logger)

	count, err := cleanup.CountExpired(ctx, retention)
	if err != nil {
		return err
	}
	logger.Info().Int("patients", count).Msg("patients eligible for permanent deletion")
	if dryRun {
		return nil
	}

	result, err := cleanup.PurgeExpired(ctx, retention)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	storage := document.NewLocalStorage(s.UploadDir)
	failed := 0
	for _, path := range result.RemovedFiles {
		if err := storage.Remove(path); err != nil {
			failed++
			logger.Warn().Err(err).Str("path", path).Msg("failed to remove document file")
		}
	}

	evt := logger.Info()
	for table, n := range result.Deleted {
		evt = evt.Int64(table, n)
	}
	evt.Int("files_removed", len(result.RemovedFiles)-failed).Int("files_failed", failed).Msg("cleanup completed")
	return nil
}
