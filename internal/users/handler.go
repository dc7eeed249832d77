package users

import (
	"encoding/json"
	"errors"
	"mime"
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

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, err, "failed to register user")
		return
	}

	respond.JSON(w, http.StatusCreated, user)
}

// Login accepts a JSON body or an OAuth2 password form (username/password).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid form payload: "+err.Error())
			return
		}
		if mediaType == "multipart/form-data" {
			_ = r.ParseMultipartForm(1 << 20)
		}
		req.Email = r.FormValue("username")
		if req.Email == "" {
			req.Email = r.FormValue("email")
		}
		req.Password = r.FormValue("password")
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
			return
		}
	}

	token, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, err, "failed to log in")
		return
	}

	respond.JSON(w, http.StatusOK, token)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.service.Logout(r.Context(), principal); err != nil {
		h.writeError(w, err, "failed to log out")
		return
	}

	respond.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.service.GetMe(r.Context(), principal)
	if err != nil {
		h.writeError(w, err, "failed to load current user")
		return
	}

	respond.JSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}

	user, err := h.service.UpdateMe(r.Context(), principal, req)
	if err != nil {
		h.writeError(w, err, "failed to update current user")
		return
	}

	respond.JSON(w, http.StatusOK, user)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListUsers(r.Context(), pagination.ParseParams(r))
	if err != nil {
		h.writeError(w, err, "failed to list users")
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err, "failed to get user")
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req AdminUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}

	user, err := h.service.UpdateUser(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, err, "failed to update user")
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrMissingEmail), errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrMissingPassword),
		errors.Is(err, ErrInvalidRole), errors.Is(err, ErrNoChanges):
		respond.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrEmailTaken):
		respond.Error(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		respond.Error(w, http.StatusUnauthorized, "Incorrect email or password")
	case errors.Is(err, ErrInactiveUser):
		respond.Error(w, http.StatusUnauthorized, "Inactive user")
	case errors.Is(err, ErrUserNotFound):
		respond.Error(w, http.StatusNotFound, "User not found")
	default:
		h.logger.Error().Err(err).Msg(msg)
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
