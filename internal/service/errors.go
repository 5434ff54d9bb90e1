package service

import (
	"errors"
	"strings"
)

var (
	// ErrUnauthorized covers every authentication failure; callers must not
	// learn which check failed.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when a resource is absent or owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when signup hits an existing email.
	ErrConflict = errors.New("user already exists with this email")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// FieldError describes a single violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError for one field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
