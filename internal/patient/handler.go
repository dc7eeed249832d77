package patient

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/family-health-keeper/backend/internal/auth"
	"github.com/family-health-keeper/backend/internal/pagination"
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

func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}

	p, err := h.service.CreatePatient(r.Context(), principal.UserID, req)
	if err != nil {
		h.writeError(w, err, "failed to create patient")
		return
	}

	respond.JSON(w, http.StatusCreated, p)
}

func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	filter := ListFilter{Search: strings.TrimSpace(r.URL.Query().Get("search"))}
	page, err := h.service.ListPatients(r.Context(), principal.UserID, filter, pagination.ParseParams(r))
	if err != nil {
		h.writeError(w, err, "failed to list patients")
		return
	}

	respond.JSON(w, http.StatusOK, page)
}

func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	p, err := h.service.GetPatient(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err, "failed to get patient")
		return
	}

	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}

	p, err := h.service.UpdatePatient(r.Context(), principal.UserID, mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, err, "failed to update patient")
		return
	}

	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.service.DeletePatient(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err, "failed to delete patient")
		return
	}

	respond.NoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrValidation):
		respond.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrPatientNotFound):
		respond.Error(w, http.StatusNotFound, "Patient not found")
	default:
		h.logger.Error().Err(err).Msg(msg)
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
