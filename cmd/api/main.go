package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/family-health-keeper/backend/internal/ai"
	"github.com/family-health-keeper/backend/internal/auth"
	"github.com/family-health-keeper/backend/internal/cache"
	"github.com/family-health-keeper/backend/internal/config"
	"github.com/family-health-keeper/backend/internal/db"
	"github.com/family-health-keeper/backend/internal/document"
	httpserver "github.com/family-health-keeper/backend/internal/http"
	"github.com/family-health-keeper/backend/internal/logging"
	"github.com/family-health-keeper/backend/internal/mail"
	"github.com/family-health-keeper/backend/internal/messaging"
	"github.com/family-health-keeper/backend/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:           "health-keeper",
		Short:         "Family Health Keeper API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Get()
			if err != nil {
				return err
			}
			logger := logging.New(s.LogLevel, s.Environment)

			ctx := context.Background()
			database, err := db.Connect(ctx, s.DatabaseURL, logger)
			if err != nil {
				return err
			}
			defer database.Close()

			count, err := db.NewMigrator(database, logger).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
}

func runServer() error {
	s, err := config.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	logger := logging.New(s.LogLevel, s.Environment).With().Str("service", s.ProjectName).Logger()

	ctx := context.Background()

	provider, err := telemetry.InitProvider(ctx, telemetry.ConfigFromSettings(s), logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telemetry disabled")
	}
	var metrics httpserver.Metrics
	if m, err := telemetry.InitMetrics(); err != nil {
		logger.Warn().Err(err).Msg("failed to register metrics")
	} else {
		metrics = m
	}

	database, err := db.Connect(ctx, s.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	applied, err := db.NewMigrator(database, logger).Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info().Int("applied", applied).Msg("database initialized")

	var redisClient redis.UniversalClient
	var revocations auth.RevocationStore
	if client, err := cache.Connect(ctx, s.RedisURL, logger); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, token revocations are kept in memory")
		revocations = auth.NewMemoryRevocationStore()
	} else {
		redisClient = client
		revocations = auth.NewRedisRevocationStore(client)
		defer client.Close()
	}

	tokens, err := auth.NewTokenManager(auth.ConfigFromSettings(s), revocations)
	if err != nil {
		return fmt.Errorf("failed to configure tokens: %w", err)
	}

	perms, fromFile, err := auth.LoadPermissionsOrDefault(s.PermissionsFile)
	if err != nil {
		return fmt.Errorf("failed to load permissions: %w", err)
	}
	logger.Info().Bool("from_file", fromFile).Int("roles", len(perms)).Msg("permissions loaded")

	var publisher messaging.PublisherInterface
	if s.RabbitMQURL != "" {
		p, err := messaging.NewPublisher(s.RabbitMQURL, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("event publishing disabled")
		} else {
			publisher = p
			defer p.Close()
		}
	}

	router := httpserver.SetupRouter(httpserver.Dependencies{
		Settings:    s,
		DB:          database,
		Redis:       redisClient,
		Tokens:      tokens,
		Permissions: perms,
		Publisher:   publisher,
		Mailer:      mail.New(mail.ConfigFromSettings(s), logger),
		Storage:     document.NewLocalStorage(s.UploadDir),
		AI:          ai.NewClient(ai.ConfigFromSettings(s), logger),
		Metrics:     metrics,
		Logger:      logger,
	})

	var httpMetrics httpserver.HTTPMetricsRecorder
	if metrics != nil {
		httpMetrics = metrics
	}
	srv := &http.Server{
		Addr:              ":" + s.Port,
		Handler:           httpserver.Handler(s, router, httpMetrics, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("version", s.Version).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down server")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	shutdownTelemetry(shutdownCtx, provider, logger)

	logger.Info().Msg("server stopped")
	return nil
}

func shutdownTelemetry(ctx context.Context, p *telemetry.Provider, logger zerolog.Logger) {
	if p == nil {
		return
	}
	if err := p.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("telemetry shutdown failed")
	}
}
