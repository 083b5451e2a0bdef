package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestEvalErrorString(t *testing.T) {
	err := NoFunction("file")
	want := `NO_FUNCTION: No evaluation function registered for kind "file".`
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestEvalErrorWithCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Internal(nil).WithCause(cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("errors.Is should find the cause through Unwrap")
	}
	if got := err.Error(); got != fmt.Sprintf("INTERNAL_ERROR: An unexpected error occurred during evaluation. (cause: %v)", cause) {
		t.Fatalf("unexpected Error(): %q", got)
	}
}

func TestRetryableDetection(t *testing.T) {
	tests := []struct {
		name      string
		err       *EvalError
		retryable bool
	}{
		{"transient", Transient("file:a", stderrors.New("flaky")), true},
		{"timeout", Timeout("file:a"), true},
		{"cycle", CycleDetected("a -> b -> a"), false},
		{"no function", NoFunction("file"), false},
		{"catastrophic", Catastrophic(stderrors.New("store corrupted")), false},
		{"interrupted", Interrupted(nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Retryable != tt.retryable {
				t.Fatalf("Retryable = %v, want %v", tt.err.Retryable, tt.retryable)
			}
			if IsRetryable(tt.err) != tt.retryable {
				t.Fatalf("IsRetryable = %v, want %v", IsRetryable(tt.err), tt.retryable)
			}
		})
	}
}

func TestIsRetryableWrapped(t *testing.T) {
	wrapped := fmt.Errorf("node failed: %w", Transient("file:a", nil))
	if !IsRetryable(wrapped) {
		t.Fatal("IsRetryable should unwrap to find the EvalError")
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Fatal("plain errors are not retryable")
	}
}

func TestNewUsesCodeRetryability(t *testing.T) {
	err := New(ErrCodeTransientFailure, "flaky", http.StatusServiceUnavailable)
	if !err.Retryable {
		t.Fatal("New should mark transient codes retryable")
	}
	err = New(ErrCodeCycleDetected, "cycle", http.StatusUnprocessableEntity)
	if err.Retryable {
		t.Fatal("New should not mark cycle errors retryable")
	}
}

func TestAsEvalError(t *testing.T) {
	inner := NotFound("key", "file:a")
	wrapped := fmt.Errorf("lookup: %w", inner)

	got, ok := AsEvalError(wrapped)
	if !ok || got != inner {
		t.Fatalf("AsEvalError = %v, %v; want inner, true", got, ok)
	}
	if _, ok := AsEvalError(stderrors.New("plain")); ok {
		t.Fatal("plain error should not convert")
	}
	if !IsEvalError(wrapped) {
		t.Fatal("IsEvalError should be true for wrapped EvalError")
	}
}

func TestToResponse(t *testing.T) {
	err := InvalidInput("keys", "at least one root key is required")
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeInvalidInput {
		t.Fatalf("response code = %s, want %s", resp.Error.Code, ErrCodeInvalidInput)
	}
	if resp.Error.Retryable {
		t.Fatal("invalid input must not be retryable")
	}
	if resp.Error.Details["field"] != "keys" {
		t.Fatalf("details = %v, want field=keys", resp.Error.Details)
	}
}

func TestWithDetail(t *testing.T) {
	err := CycleDetected("a -> a").WithDetail("pass_id", "p-1")
	if err.Details["pass_id"] != "p-1" {
		t.Fatalf("Details = %v, want pass_id=p-1", err.Details)
	}
	if err.Details["cycle"] != "a -> a" {
		t.Fatalf("Details = %v, want cycle preserved", err.Details)
	}
}
