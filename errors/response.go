package errors

import (
	stderrors "errors"
)

// ErrorResponse is the JSON structure returned by the inspection endpoints
// following RFC 7807.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the error details sent to clients.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse converts an EvalError to an ErrorResponse for JSON serialization.
func (e *EvalError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:      e.Code,
			Message:   e.Message,
			Retryable: e.Retryable,
			Details:   e.Details,
		},
	}
}

// IsEvalError checks if an error is an EvalError.
func IsEvalError(err error) bool {
	var evalErr *EvalError
	return stderrors.As(err, &evalErr)
}

// AsEvalError converts an error to an EvalError if possible.
func AsEvalError(err error) (*EvalError, bool) {
	var evalErr *EvalError
	if stderrors.As(err, &evalErr) {
		return evalErr, true
	}
	return nil, false
}

// IsRetryable reports whether err (or any error it wraps) is a retryable
// EvalError.
func IsRetryable(err error) bool {
	if evalErr, ok := AsEvalError(err); ok {
		return evalErr.Retryable
	}
	return false
}
