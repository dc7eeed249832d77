package medicalhistory

import (
	"encoding/json"
	"errors"
	"net/http"

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

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}

	e, err := h.service.CreateEntry(r.Context(), principal.UserID, req)
	if err != nil {
		h.writeError(w, err, "failed to create medical history entry")
		return
	}
	respond.JSON(w, http.StatusCreated, e)
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	q := r.URL.Query()
	filter := ListFilter{PatientID: q.Get("patient_id"), Status: q.Get("status")}
	page, err := h.service.ListEntries(r.Context(), principal.UserID, filter, pagination.ParseParams(r))
	if err != nil {
		h.writeError(w, err, "failed to list medical history")
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	e, err := h.service.GetEntry(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err, "failed to get medical history entry")
		return
	}
	respond.JSON(w, http.StatusOK, e)
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}

	e, err := h.service.UpdateEntry(r.Context(), principal.UserID, mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, err, "failed to update medical history entry")
		return
	}
	respond.JSON(w, http.StatusOK, e)
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.service.DeleteEntry(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err, "failed to delete medical history entry")
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
	case errors.Is(err, ErrEntryNotFound):
		respond.Error(w, http.StatusNotFound, "Medical history entry not found")
	default:
		h.logger.Error().Err(err).Msg(msg)
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
