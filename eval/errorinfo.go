package eval

import (
	"fmt"
	"strings"
)

// ErrorInfo describes why evaluating a key failed. The key it is stored
// under is the value that was being evaluated when the error was
// discovered, not necessarily the cause; RootCauses points at the keys
// whose evaluation originally failed.
type ErrorInfo struct {
	// Err is the underlying failure.
	Err error
	// RootCauses are the keys whose evaluation originally failed. For a
	// directly failing key this is the key itself; for a key that failed
	// because a dependency failed, it is the dependency's root causes.
	RootCauses []Key
	// Cycles holds dependency cycles involving the key, if the failure was
	// a cycle. Each cycle is the key path from the key back to itself.
	Cycles [][]Key
	// Transient marks failures that may succeed if re-evaluated.
	Transient bool
}

// NewErrorInfo creates an ErrorInfo for a key that failed directly.
func NewErrorInfo(key Key, err error) *ErrorInfo {
	return &ErrorInfo{Err: err, RootCauses: []Key{key}}
}

// Error implements the error interface.
func (e *ErrorInfo) Error() string {
	if len(e.Cycles) > 0 {
		return fmt.Sprintf("cycle detected: %s", formatCycle(e.Cycles[0]))
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "evaluation failed"
}

// Unwrap returns the underlying error.
func (e *ErrorInfo) Unwrap() error { return e.Err }

// IsCycle reports whether the failure was a dependency cycle.
func (e *ErrorInfo) IsCycle() bool { return len(e.Cycles) > 0 }

func formatCycle(cycle []Key) string {
	parts := make([]string, 0, len(cycle))
	for _, k := range cycle {
		parts = append(parts, fmt.Sprint(k))
	}
	return strings.Join(parts, " -> ")
}
