package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeAPIError   = "API_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeStorage    = "STORAGE_ERROR"
	CodeSnapshot   = "SNAPSHOT_ERROR"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

type APIError struct {
	*AppError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

// WithCause keeps the *APIError type so errors.As still matches after wrapping.
func (e *APIError) WithCause(cause error) *APIError {
	e.Cause = cause
	return e
}

type ValidationError struct {
	*AppError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type StorageError struct {
	*AppError
	Backend   string
	Operation string
	Key       string
}

func NewStorageError(message, backend, operation, key string, cause error) *StorageError {
	return &StorageError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeStorage,
			StatusCode: 500,
			Context: map[string]any{
				"backend":   backend,
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Backend:   backend,
		Operation: operation,
		Key:       key,
	}
}

// SnapshotReason classifies why a stored snapshot could not be restored.
type SnapshotReason string

const (
	SnapshotMissingEntry SnapshotReason = "missing_entry"
	SnapshotMalformed    SnapshotReason = "malformed"
	SnapshotInvalid      SnapshotReason = "invalid"
)

type SnapshotError struct {
	*AppError
	Reason SnapshotReason
}

func NewSnapshotError(message string, reason SnapshotReason, cause error) *SnapshotError {
	return &SnapshotError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeSnapshot,
			StatusCode: 422,
			Context: map[string]any{
				"reason": string(reason),
			},
			Cause: cause,
		},
		Reason: reason,
	}
}

func (e *AppError) HTTPStatus() int {
	return e.StatusCode
}

// StatusCode reports the HTTP status carried by err, or 0 when none is attached.
func StatusCode(err error) int {
	var coded interface{ HTTPStatus() int }
	if stderrors.As(err, &coded) {
		return coded.HTTPStatus()
	}
	return 0
}
