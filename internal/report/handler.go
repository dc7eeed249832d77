package report

import (
	"errors"
	"net/http"

	"github.com/family-health-keeper/backend/internal/auth"
	"github.com/family-health-keeper/backend/internal/respond"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type Handler struct {
	service ServiceInterface
	logger  zerolog.Logger
}

func NewHandler(service ServiceInterface, logger zerolog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) PatientSummary(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	summary, err := h.service.PatientSummary(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if errors.Is(err, ErrPatientNotFound) {
		respond.Error(w, http.StatusNotFound, "Patient not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build patient summary")
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, summary)
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	overview, err := h.service.Overview(r.Context(), principal.UserID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build overview")
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, overview)
}
