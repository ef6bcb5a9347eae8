package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a referenced hospital, doctor or appointment does not exist
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates malformed or missing input
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates the slot is already taken
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeConfiguration indicates a doctor record without a usable availability pattern
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"

	// ErrorTypeInternal indicates a persistence or other internal failure
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from an external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	// Fields holds per-field detail for validation errors, keyed by wire field name.
	Fields map[string]string
	Err    error
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s (%s)", msg, e.fieldSummary())
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) fieldSummary() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return strings.Join(parts, "; ")
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewFieldValidationError creates a validation error carrying per-field detail
func NewFieldValidationError(message string, fields map[string]string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Fields:  fields,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewConfigurationError creates a new configuration (data integrity) error
func NewConfigurationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConfiguration,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// Wire kinds reported to HTTP clients.
const (
	KindValidation    = "validation"
	KindConflict      = "conflict"
	KindNotFound      = "not_found"
	KindConfiguration = "configuration"
	KindStore         = "store"
	// KindRateLimited is emitted by the HTTP layer only.
	KindRateLimited = "rate_limited"
)

// Kind maps err to the machine-readable kind reported to clients.
// Anything that is not a classified AppError is reported as a store failure.
func Kind(err error) string {
	appErr, ok := As(err)
	if !ok {
		return KindStore
	}
	switch appErr.Type {
	case ErrorTypeValidation:
		return KindValidation
	case ErrorTypeConflict:
		return KindConflict
	case ErrorTypeNotFound:
		return KindNotFound
	case ErrorTypeConfiguration:
		return KindConfiguration
	default:
		return KindStore
	}
}
