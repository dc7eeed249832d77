package medication

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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

func (h *Handler) CreateMedication(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreateMedicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}

	m, err := h.service.CreateMedication(r.Context(), principal.UserID, req)
	if err != nil {
		h.writeError(w, err, "failed to create medication")
		return
	}
	respond.JSON(w, http.StatusCreated, m)
}

func (h *Handler) ListMedications(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	q := r.URL.Query()
	filter := ListFilter{PatientID: q.Get("patient_id")}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Error(w, http.StatusUnprocessableEntity, "active must be true or false")
			return
		}
		filter.Active = &active
	}

	page, err := h.service.ListMedications(r.Context(), principal.UserID, filter, pagination.ParseParams(r))
	if err != nil {
		h.writeError(w, err, "failed to list medications")
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *Handler) GetMedication(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	m, err := h.service.GetMedication(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err, "failed to get medication")
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

func (h *Handler) UpdateMedication(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req UpdateMedicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}

	m, err := h.service.UpdateMedication(r.Context(), principal.UserID, mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, err, "failed to update medication")
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

func (h *Handler) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.service.DeleteMedication(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err, "failed to delete medication")
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
	case errors.Is(err, ErrMedicationNotFound):
		respond.Error(w, http.StatusNotFound, "Medication not found")
	default:
		h.logger.Error().Err(err).Msg(msg)
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
