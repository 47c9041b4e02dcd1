package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the core and adapters.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrUnauthorized     = errors.New("invalid credentials")
	ErrDecode           = errors.New("decode failed")
	ErrGeofenceRejected = errors.New(ReasonTooClose)
)

// ValidationError describes a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// DecodeError reports a stored structured field that failed to parse.
type DecodeError struct {
	Field    string
	RecordID int64
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s of record %d: %v", e.Field, e.RecordID, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }
