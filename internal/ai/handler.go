package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/family-health-keeper/backend/internal/respond"
	"github.com/rs/zerolog"
)

// Generator is the upstream the handler forwards to.
type Generator interface {
	GenerateInsights(ctx context.Context, data map[string]any) (*Response, error)
}

var _ Generator = (*Client)(nil)

// MetricsRecorder receives one observation per upstream call.
type MetricsRecorder interface {
	RecordAIRequest(ctx context.Context, operation string, statusCode int, durationMs float64)
}

type Handler struct {
	generator Generator
	metrics   MetricsRecorder
	logger    zerolog.Logger
}

// NewHandler builds the AI handler. metrics may be nil.
func NewHandler(generator Generator, metrics MetricsRecorder, logger zerolog.Logger) *Handler {
	return &Handler{generator: generator, metrics: metrics, logger: logger}
}

// GenerateInsights relays the upstream JSON on 200. Any other upstream
// status is returned as-is with a fixed detail; every other failure is a
// 500 carrying the error text.
func (h *Handler) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	start := time.Now()
	resp, err := h.generator.GenerateInsights(r.Context(), data)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	h.record(r.Context(), "generate_insights", status, start)

	if err != nil {
		h.logger.Error().Err(err).Msg("AI request failed")
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if resp.StatusCode != http.StatusOK {
		h.logger.Warn().Int("status", resp.StatusCode).Msg("AI upstream returned non-200")
		respond.Error(w, resp.StatusCode, "Failed to generate insights")
		return
	}

	var body json.RawMessage
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		h.logger.Error().Err(err).Msg("AI upstream returned invalid JSON")
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := respond.Raw(w, http.StatusOK, body); err != nil {
		h.logger.Warn().Err(err).Msg("failed to relay AI response")
	}
}

// SummarizeHistory accepts a JSON object and does nothing with it yet.
func (h *Handler) SummarizeHistory(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond.JSON(w, http.StatusOK, nil)
}

func (h *Handler) record(ctx context.Context, operation string, status int, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordAIRequest(ctx, operation, status, float64(time.Since(start).Milliseconds()))
}
