package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies application errors along the failure taxonomy of the
// loading pipeline: schema resolution, file loading, and metric computation,
// plus the ambient kinds raised by configuration, validation, and export.
type ErrorType string

const (
	// ErrTypeSchema marks a required canonical field with no matching
	// source column. Fatal for the file being normalized.
	ErrTypeSchema ErrorType = "SCHEMA"

	// ErrTypeLoad marks a file that is missing, unreadable, or carries no
	// data rows after its header. Fatal for that file.
	ErrTypeLoad ErrorType = "LOAD"

	// ErrTypeMetric marks an undefined computation, such as a zero
	// denominator or an empty eligible row set. Recoverable: callers render
	// a missing-value indicator instead of a number.
	ErrTypeMetric ErrorType = "METRIC"

	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper constructors for the pipeline error taxonomy

// NewSchemaError reports a required canonical field that matched no source
// column. Category and field land in the error context for diagnostics.
func NewSchemaError(category, field string, cause error) *AppError {
	return NewAppError(ErrTypeSchema,
		fmt.Sprintf("no column matches required field %q in %s file", field, category), cause).
		WithContext("category", category).
		WithContext("field", field)
}

// NewLoadError reports a file that could not be loaded at all.
func NewLoadError(path, reason string, cause error) *AppError {
	return NewAppError(ErrTypeLoad,
		fmt.Sprintf("load %s: %s", path, reason), cause).
		WithContext("path", path)
}

// NewMetricError reports an undefined computation for a named metric.
func NewMetricError(metric, reason string) *AppError {
	return NewAppError(ErrTypeMetric,
		fmt.Sprintf("%s: %s", metric, reason), nil).
		WithContext("metric", metric)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// TypeOf extracts the ErrorType from an error chain, or "" if no AppError
// is present.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsSchemaError reports whether the chain contains a schema error.
func IsSchemaError(err error) bool {
	return TypeOf(err) == ErrTypeSchema
}

// IsLoadError reports whether the chain contains a load error.
func IsLoadError(err error) bool {
	return TypeOf(err) == ErrTypeLoad
}

// IsMetricError reports whether the chain contains a metric error.
func IsMetricError(err error) bool {
	return TypeOf(err) == ErrTypeMetric
}
