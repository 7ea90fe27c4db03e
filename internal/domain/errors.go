package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
)

// Import engine errors. Callers distinguish "bad input" (ErrEmailMissing,
// wraps ErrValidation) from "identity conflict" (ErrEmailExists, wraps ErrConflict).
var (
	ErrConfigMissing        = errors.New("config missing")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrUpstreamBadResponse  = errors.New("upstream bad response")
	ErrEmailMissing         = fmt.Errorf("email missing: %w", ErrValidation)
	ErrEmailExists          = fmt.Errorf("email exists: %w", ErrConflict)
	ErrImportAlreadyRunning = fmt.Errorf("import already running: %w", ErrConflict)
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// ImportStage names the step of an import run at which a fatal error occurred.
type ImportStage string

const (
	ImportStageConfig   ImportStage = "config"
	ImportStageLock     ImportStage = "lock"
	ImportStageFetch    ImportStage = "fetch"
	ImportStageLoad     ImportStage = "load"
	ImportStageTracks   ImportStage = "tracks"
	ImportStageSpeakers ImportStage = "speakers"
	ImportStageSessions ImportStage = "sessions"
	ImportStageCommit   ImportStage = "commit"
)

// ImportError is returned for any fatal import failure. Report holds the
// counters accumulated before the failure; for ImportStageCommit the chunks
// counted in Report.Chunks are already persisted.
type ImportError struct {
	ConferenceID string
	Stage        ImportStage
	Report       ImportReport
	Err          error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %s: %v", e.ConferenceID, e.Stage, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }
