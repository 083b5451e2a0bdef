// Package errors provides unified error handling for the evaluation
// toolkit. It implements structured error types with error codes, HTTP
// status mapping for the inspection endpoints, and retryable detection
// used by the engine's transient-failure retry.
package errors

import (
	"fmt"
	"net/http"
)

// EvalError is the unified error type for engine-level failures.
type EvalError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if re-evaluating may succeed.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *EvalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *EvalError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *EvalError) WithCause(cause error) *EvalError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *EvalError) WithDetail(key string, value any) *EvalError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new EvalError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *EvalError {
	return &EvalError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// Transient creates a new EvalError for a failure that may succeed on
// re-evaluation.
func Transient(key string, cause error) *EvalError {
	return &EvalError{
		Code: ErrCodeTransientFailure, Message: fmt.Sprintf("Evaluation of %s failed transiently.", key),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"key": key}, Cause: cause,
	}
}

// Timeout creates a new EvalError for an evaluation that timed out.
func Timeout(key string) *EvalError {
	return &EvalError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("Evaluation of %s took too long.", key),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"key": key},
	}
}

// CycleDetected creates a new EvalError for a dependency cycle.
func CycleDetected(cycle string) *EvalError {
	return &EvalError{
		Code: ErrCodeCycleDetected, Message: fmt.Sprintf("Dependency cycle detected: %s", cycle),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"cycle": cycle},
	}
}

// NoFunction creates a new EvalError for a key kind with no registered
// evaluation function.
func NoFunction(kind string) *EvalError {
	return &EvalError{
		Code: ErrCodeNoFunction, Message: fmt.Sprintf("No evaluation function registered for kind %q.", kind),
		HTTPStatus: http.StatusNotImplemented, Retryable: false,
		Details: map[string]any{"kind": kind},
	}
}

// Interrupted creates a new EvalError for a pass cancelled before finishing.
func Interrupted(cause error) *EvalError {
	return &EvalError{
		Code: ErrCodeInterrupted, Message: "Evaluation was interrupted before completing.",
		HTTPStatus: http.StatusRequestTimeout, Retryable: false, Cause: cause,
	}
}

// Catastrophic creates a new EvalError for an unrecoverable pass-level
// failure.
func Catastrophic(cause error) *EvalError {
	return &EvalError{
		Code: ErrCodeCatastrophic, Message: "Evaluation aborted by an unrecoverable failure.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// InvalidGraph creates a new EvalError for unusable requested keys or
// graph shape.
func InvalidGraph(reason string) *EvalError {
	return &EvalError{
		Code: ErrCodeInvalidGraph, Message: fmt.Sprintf("Invalid evaluation request: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// NotFound creates a new EvalError for a key that was not found.
func NotFound(resource, id string) *EvalError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &EvalError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// InvalidInput creates a new EvalError for invalid input.
func InvalidInput(field, reason string) *EvalError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &EvalError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new EvalError for validation errors.
func Validation(message string) *EvalError {
	return &EvalError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new EvalError for a missing required field.
func MissingField(field string) *EvalError {
	return &EvalError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// Internal creates a new EvalError for an unexpected internal error.
func Internal(cause error) *EvalError {
	return &EvalError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred during evaluation.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
