package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// ErrorTypeInvalidInput marks unreadable, corrupt, or empty image input.
	// Always fatal, surfaced immediately, never retried.
	ErrorTypeInvalidInput ErrorType = "invalid_input"

	// ErrorTypeModelUnavailable marks a learned stage whose backing model
	// failed to load. Recoverable: the stage is skipped and downstream
	// weighting renormalizes.
	ErrorTypeModelUnavailable ErrorType = "model_unavailable"

	// ErrorTypeFitDivergence marks a light fit whose residual exceeded
	// tolerance. Recoverable: direction becomes unknown.
	ErrorTypeFitDivergence ErrorType = "fit_divergence"

	// ErrorTypeDimensionMismatch marks an internal invariant violation,
	// e.g. a mask whose size no longer matches the image. Always fatal.
	ErrorTypeDimensionMismatch ErrorType = "dimension_mismatch"

	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewInvalidInputError creates a new invalid-input error
func NewInvalidInputError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidInput,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewModelUnavailableError creates a new model-unavailable error for the named model
func NewModelUnavailableError(model string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeModelUnavailable,
		Message:    fmt.Sprintf("model %q unavailable", model),
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// NewFitDivergenceError creates a new fit-divergence error
func NewFitDivergenceError(residual, tolerance float64) *AppError {
	return &AppError{
		Type:       ErrorTypeFitDivergence,
		Message:    fmt.Sprintf("light fit residual %.4f exceeds tolerance %.4f", residual, tolerance),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewDimensionMismatchError creates a new dimension-mismatch error
func NewDimensionMismatchError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeDimensionMismatch,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsRecoverable reports whether err is a stage-local failure the pipeline
// converts into a missing signal rather than propagating to the caller.
func IsRecoverable(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Type {
	case ErrorTypeModelUnavailable, ErrorTypeFitDivergence:
		return true
	default:
		return false
	}
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}
