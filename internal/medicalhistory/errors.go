package medicalhistory

import "errors"

var (
	ErrEntryNotFound   = errors.New("medical history entry not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrValidation      = errors.New("validation error")
)
