package http

import (
	"context"
	"net/http"
	"time"

	"github.com/family-health-keeper/backend/internal/respond"
	"github.com/rs/zerolog"
)

// healthTimestamp is reported by /health as-is.
const healthTimestamp = "2024-01-01T00:00:00Z"

const readyTimeout = 2 * time.Second

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthHandler is the liveness probe. It never touches a dependency.
func HealthHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, HealthResponse{Status: "OK", Timestamp: healthTimestamp, Version: version})
	}
}

// ReadinessCheck probes one dependency.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type readinessResponse struct {
	Status string            `json:"status,omitempty"`
	Detail string            `json:"detail,omitempty"`
	Checks map[string]string `json:"checks"`
}

// ReadyHandler runs every check and answers 503 when any fails.
func ReadyHandler(checks []ReadinessCheck, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		resp := readinessResponse{Checks: make(map[string]string, len(checks))}
		healthy := true
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				healthy = false
				resp.Checks[c.Name] = "error: " + err.Error()
				logger.Warn().Err(err).Str("check", c.Name).Msg("readiness check failed")
				continue
			}
			resp.Checks[c.Name] = "ok"
		}

		if !healthy {
			resp.Detail = "Service unavailable"
			respond.JSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Status = "ready"
		respond.JSON(w, http.StatusOK, resp)
	}
}
