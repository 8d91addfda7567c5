package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes with HTTP status mapping
const (
	// Request errors
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeValidationFailed  = "VALIDATION_ERROR"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
	ErrCodeNotFound          = "NOT_FOUND"

	// Execution errors
	ErrCodeQueryFailed  = "QUERY_FAILED"
	ErrCodeQueryTimeout = "QUERY_TIMEOUT"

	// Engine errors
	ErrCodeAccessDenied      = "ACCESS_DENIED"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeEngineUnavailable = "ENGINE_UNAVAILABLE"

	// General errors
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// HTTPStatus maps error codes to HTTP status codes. This is the single place
// where response status codes are assigned.
var HTTPStatus = map[string]int{
	ErrCodeInvalidRequest:    http.StatusBadRequest,
	ErrCodeInvalidJSON:       http.StatusBadRequest,
	ErrCodeValidationFailed:  http.StatusBadRequest,
	ErrCodeInvalidParameters: http.StatusBadRequest,
	ErrCodeNotFound:          http.StatusNotFound,

	ErrCodeQueryFailed:  http.StatusBadRequest,
	ErrCodeQueryTimeout: http.StatusRequestTimeout,

	ErrCodeAccessDenied:      http.StatusForbidden,
	ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
	ErrCodeEngineUnavailable: http.StatusServiceUnavailable,

	ErrCodeInternalError: http.StatusInternalServerError,
}

// AppError represents an application error with additional context
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for creating errors
type ErrorBuilder struct {
	code    string
	message string
	details string
	cause   error
}

// NewErrorBuilder creates a new error builder
func NewErrorBuilder(code string) *ErrorBuilder {
	return &ErrorBuilder{code: code}
}

// WithMessage sets the error message
func (eb *ErrorBuilder) WithMessage(message string) *ErrorBuilder {
	eb.message = message
	return eb
}

// WithDetails sets the error details
func (eb *ErrorBuilder) WithDetails(details string) *ErrorBuilder {
	eb.details = details
	return eb
}

// WithCause sets the underlying error cause
func (eb *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	eb.cause = cause
	return eb
}

// Build constructs the final AppError
func (eb *ErrorBuilder) Build() *AppError {
	if eb.message == "" {
		eb.message = getDefaultMessage(eb.code)
	}

	return &AppError{
		Code:    eb.code,
		Message: eb.message,
		Details: eb.details,
		Cause:   eb.cause,
	}
}

// getDefaultMessage returns a default message for error codes
func getDefaultMessage(code string) string {
	messages := map[string]string{
		ErrCodeInvalidRequest:    "The request is invalid",
		ErrCodeInvalidJSON:       "Invalid JSON format",
		ErrCodeValidationFailed:  "Validation failed",
		ErrCodeInvalidParameters: "Invalid parameters",
		ErrCodeNotFound:          "Resource not found",

		ErrCodeQueryFailed:  "Query execution failed",
		ErrCodeQueryTimeout: "Query timeout",

		ErrCodeAccessDenied:      "Access denied by query engine",
		ErrCodeRateLimitExceeded: "Rate limit exceeded",
		ErrCodeEngineUnavailable: "Query engine temporarily unavailable",

		ErrCodeInternalError: "Internal server error",
	}

	if msg, exists := messages[code]; exists {
		return msg
	}
	return "Unknown error"
}

// Convenience constructors for common error types

func NewValidationError(message string, details string) *AppError {
	return NewErrorBuilder(ErrCodeValidationFailed).
		WithMessage(message).
		WithDetails(details).
		Build()
}

func NewNotFoundError(resource string) *AppError {
	return NewErrorBuilder(ErrCodeNotFound).
		WithMessage(fmt.Sprintf("%s not found", resource)).
		Build()
}

func NewQueryFailedError(reason string) *AppError {
	if reason == "" {
		reason = "Unknown error"
	}
	return NewErrorBuilder(ErrCodeQueryFailed).
		WithMessage("Query execution failed").
		WithDetails(reason).
		Build()
}

func NewTimeoutError(message string, details string) *AppError {
	return NewErrorBuilder(ErrCodeQueryTimeout).
		WithMessage(message).
		WithDetails(details).
		Build()
}

func NewInternalError(cause error) *AppError {
	// The generic message is deliberate: internal detail stays out of responses.
	return NewErrorBuilder(ErrCodeInternalError).
		WithCause(cause).
		Build()
}

// AsAppError extracts an AppError from an error chain, if present.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorType checks if an error matches a specific error code
func IsErrorType(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetErrorStatus returns the HTTP status code for an error
func GetErrorStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		if status, exists := HTTPStatus[appErr.Code]; exists {
			return status
		}
	}
	return http.StatusInternalServerError
}
