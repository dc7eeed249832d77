package medication

import "errors"

var (
	ErrMedicationNotFound = errors.New("medication not found")
	ErrPatientNotFound    = errors.New("patient not found")
	ErrValidation         = errors.New("validation error")
)
