package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Query errors
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	ErrPermissionDenied ErrorCode = "PERMISSION_DENIED"

	// Ingestion errors
	ErrValidation ErrorCode = "VALIDATION"

	// Persistence errors
	ErrPersistenceConnect ErrorCode = "PERSISTENCE_CONNECT"
	ErrCorruptSnapshot    ErrorCode = "CORRUPT_SNAPSHOT"

	// System errors
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// StatsError represents a statistics-service error with a machine readable code
type StatsError struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying error, if any
}

// Error implements the error interface
func (e *StatsError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *StatsError) Unwrap() error {
	return e.Err
}

// NewStatsError creates a new StatsError
func NewStatsError(code ErrorCode, message string) *StatsError {
	return &StatsError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error in a StatsError
func WrapError(code ErrorCode, message string, err error) *StatsError {
	return &StatsError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsStatsError checks if an error is a StatsError and has a specific code
func IsStatsError(err error, code ErrorCode) bool {
	var statsErr *StatsError
	if !As(err, &statsErr) {
		return false
	}
	return statsErr.Code == code
}

// As finds the first StatsError in err's chain
func As(err error, target **StatsError) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.As(err, target)
}
