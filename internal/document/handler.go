package document

import (
	"errors"
	"mime"
	"net/http"

	"github.com/family-health-keeper/backend/internal/auth"
	"github.com/family-health-keeper/backend/internal/pagination"
	"github.com/family-health-keeper/backend/internal/respond"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const (
	// multipartOverhead covers boundaries and the non-file form fields.
	multipartOverhead = 1 << 20
	maxMemory         = 8 << 20
)

type Handler struct {
	service     ServiceInterface
	maxFileSize int64
	logger      zerolog.Logger
}

func NewHandler(service ServiceInterface, maxFileSize int64, logger zerolog.Logger) *Handler {
	return &Handler{service: service, maxFileSize: maxFileSize, logger: logger}
}

func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		respond.Error(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()

	doc, err := h.service.UploadDocument(r.Context(), principal.UserID, UploadRequest{
		PatientID:   r.FormValue("patient_id"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		h.writeError(w, err, "failed to upload document")
		return
	}
	respond.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	q := r.URL.Query()
	filter := ListFilter{PatientID: q.Get("patient_id"), Category: q.Get("category")}
	page, err := h.service.ListDocuments(r.Context(), principal.UserID, filter, pagination.ParseParams(r))
	if err != nil {
		h.writeError(w, err, "failed to list documents")
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	doc, err := h.service.GetDocument(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err, "failed to get document")
		return
	}
	respond.JSON(w, http.StatusOK, doc)
}

func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	doc, f, err := h.service.OpenDocument(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err, "failed to open document")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, doc.FileName, doc.CreatedAt, f)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.service.DeleteDocument(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err, "failed to delete document")
		return
	}
	respond.NoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrValidation):
		respond.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrEmptyFile):
		respond.Error(w, http.StatusUnprocessableEntity, "File is empty")
	case errors.Is(err, ErrFileTooLarge):
		respond.Error(w, http.StatusRequestEntityTooLarge, "File too large")
	case errors.Is(err, ErrPatientNotFound):
		respond.Error(w, http.StatusNotFound, "Patient not found")
	case errors.Is(err, ErrDocumentNotFound):
		respond.Error(w, http.StatusNotFound, "Document not found")
	default:
		h.logger.Error().Err(err).Msg(msg)
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
