package appointment

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

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}

	a, err := h.service.CreateAppointment(r.Context(), principal.UserID, req)
	if err != nil {
		h.writeError(w, err, "failed to create appointment")
		return
	}
	respond.JSON(w, http.StatusCreated, a)
}

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	q := r.URL.Query()
	filter := ListFilter{PatientID: q.Get("patient_id"), Status: q.Get("status")}
	if raw := q.Get("upcoming"); raw != "" {
		upcoming, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Error(w, http.StatusUnprocessableEntity, "upcoming must be true or false")
			return
		}
		filter.Upcoming = upcoming
	}

	page, err := h.service.ListAppointments(r.Context(), principal.UserID, filter, pagination.ParseParams(r))
	if err != nil {
		h.writeError(w, err, "failed to list appointments")
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	a, err := h.service.GetAppointment(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err, "failed to get appointment")
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}

	a, err := h.service.UpdateAppointment(r.Context(), principal.UserID, mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, err, "failed to update appointment")
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.service.DeleteAppointment(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err, "failed to delete appointment")
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
	case errors.Is(err, ErrAppointmentNotFound):
		respond.Error(w, http.StatusNotFound, "Appointment not found")
	default:
		h.logger.Error().Err(err).Msg(msg)
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
