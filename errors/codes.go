package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Evaluation errors (retryable)
const (
	// ErrCodeTransientFailure indicates a failure that may succeed if the
	// node is re-evaluated.
	ErrCodeTransientFailure ErrorCode = "TRANSIENT_FAILURE"
	// ErrCodeTimeout indicates the evaluation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Evaluation errors (terminal)
const (
	// ErrCodeCycleDetected indicates the dependency graph contains a cycle.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"
	// ErrCodeNoFunction indicates no evaluation function is registered for
	// a key's kind.
	ErrCodeNoFunction ErrorCode = "NO_FUNCTION"
	// ErrCodeInterrupted indicates the pass was cancelled before finishing.
	ErrCodeInterrupted ErrorCode = "INTERRUPTED"
	// ErrCodeCatastrophic indicates an unrecoverable pass-level failure not
	// attributable to a single key.
	ErrCodeCatastrophic ErrorCode = "CATASTROPHIC"
	// ErrCodeInvalidGraph indicates the requested keys or graph shape are
	// unusable.
	ErrCodeInvalidGraph ErrorCode = "INVALID_GRAPH"
)

// Caller/input errors
const (
	// ErrCodeNotFound indicates the requested key was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// retryableCodes is the set of codes safe to retry.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransientFailure: true,
	ErrCodeTimeout:          true,
}

// IsRetryableCode returns true if the error code indicates a retryable failure.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
