package document

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// Document categories.
const (
	CategoryLabResult    = "lab-result"
	CategoryPrescription = "prescription"
	CategoryImaging      = "imaging"
	CategoryInsurance    = "insurance"
	CategoryVaccination  = "vaccination"
	CategoryOther        = "other"
)

var categories = map[string]bool{
	CategoryLabResult:    true,
	CategoryPrescription: true,
	CategoryImaging:      true,
	CategoryInsurance:    true,
	CategoryVaccination:  true,
	CategoryOther:        true,
}

const defaultContentType = "application/octet-stream"

// Document is the metadata of an uploaded file. StoragePath never leaves
// the server.
type Document struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	PatientID   *string   `json:"patient_id,omitempty"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	SHA256      string    `json:"sha256"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	StoragePath string    `json:"-"`
}

// UploadRequest carries one multipart upload into the service.
type UploadRequest struct {
	PatientID   string
	Category    string
	Description string
	FileName    string
	ContentType string
	Body        io.Reader
}

type ListFilter struct {
	PatientID string
	Category  string
}

func (r *UploadRequest) Validate() error {
	r.PatientID = strings.TrimSpace(r.PatientID)
	r.Description = strings.TrimSpace(r.Description)

	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(r.FileName), `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return fmt.Errorf("%w: file name is required", ErrValidation)
	}
	r.FileName = name

	if r.Category == "" {
		r.Category = CategoryOther
	}
	if err := validateCategory(&r.Category); err != nil {
		return err
	}

	if r.ContentType == "" {
		r.ContentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	if r.ContentType == "" {
		r.ContentType = defaultContentType
	}
	if r.Body == nil {
		return fmt.Errorf("%w: file is required", ErrValidation)
	}
	return nil
}

func validateCategory(category *string) error {
	*category = strings.ToLower(strings.TrimSpace(*category))
	if !categories[*category] {
		return fmt.Errorf("%w: category must be one of lab-result, prescription, imaging, insurance, vaccination, other", ErrValidation)
	}
	return nil
}
