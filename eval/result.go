package eval

import (
	"fmt"
	"strings"
)

// outcome is the tagged per-key variant: a key holds either a value or an
// error descriptor. Storing both behind one map entry makes the
// success-xor-failure invariant structurally impossible to violate.
type outcome[T Value] struct {
	value T
	err   *ErrorInfo
	isErr bool
}

// Result is the immutable outcome of one evaluation pass. It holds all
// successfully evaluated values, retrievable through Get, and the error
// descriptors for the keys that failed to evaluate (the first failure in
// the fail-fast case, all remaining failures in the keep-going case).
//
// A key can never both succeed and fail: if Get returns a value for a key,
// Err returns nil for that key, and vice versa.
//
// A Result is produced once by a Builder, is immutable thereafter, and is
// safe for unsynchronized concurrent reads.
type Result[T Value] struct {
	outcomes    map[Key]outcome[T]
	hasError    bool
	catastrophe error
	graph       Walkable
}

// Get returns the successfully evaluated value for key. The second return
// is false when the key failed or was never evaluated; Get does not
// distinguish the two, callers needing that consult Err.
func (r *Result[T]) Get(key Key) (T, bool) {
	o, ok := r.outcomes[key]
	if !ok || o.isErr {
		var zero T
		return zero, false
	}
	return o.value, true
}

// HasError reports whether any value anywhere in the transitive evaluation
// failed. This may be true even when every requested key has a value in
// Get: a top-level key can recover from a failed dependency and still
// succeed, yet the pass is flagged as having encountered an error.
func (r *Result[T]) HasError() bool { return r.hasError }

// Catastrophe returns the unrecoverable failure that aborted the pass, if
// any. It is independent of the per-key error descriptors.
func (r *Result[T]) Catastrophe() error { return r.catastrophe }

// Values returns all successfully evaluated values. Iteration order is
// unspecified.
func (r *Result[T]) Values() []T {
	values := make([]T, 0, len(r.outcomes))
	for _, o := range r.outcomes {
		if !o.isErr {
			values = append(values, o.value)
		}
	}
	return values
}

// ErrorMap returns a snapshot of all stored error descriptors keyed by the
// failing key. Mutating the returned map never affects the result.
func (r *Result[T]) ErrorMap() map[Key]*ErrorInfo {
	m := make(map[Key]*ErrorInfo)
	for k, o := range r.outcomes {
		if o.isErr {
			m[k] = o.err
		}
	}
	return m
}

// Err returns the error descriptor for key, or nil if the key succeeded or
// was never evaluated.
func (r *Result[T]) Err(key Key) *ErrorInfo {
	o, ok := r.outcomes[key]
	if !ok || !o.isErr {
		return nil
	}
	return o.err
}

// AnyError returns an arbitrary stored error descriptor. Which one is
// unspecified when several keys failed. Calling AnyError on a result with
// no errors is a caller contract violation and panics.
func (r *Result[T]) AnyError() *ErrorInfo {
	for _, o := range r.outcomes {
		if o.isErr {
			return o.err
		}
	}
	panic("eval: AnyError called on a result with no errors")
}

// KeyNames returns the arguments of all successfully evaluated keys,
// stripped of their key wrappers. The returned set is disjoint from the
// keys of ErrorMap.
func (r *Result[T]) KeyNames() []any {
	names := make([]any, 0, len(r.outcomes))
	for k, o := range r.outcomes {
		if !o.isErr {
			names = append(names, k.Argument())
		}
	}
	return names
}

// Graph returns the walkable evaluated graph, or nil if the engine that
// produced this result does not support graph inspection.
func (r *Result[T]) Graph() Walkable { return r.graph }

func (r *Result[T]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Result{hasError: %t", r.hasError)
	if r.catastrophe != nil {
		fmt.Fprintf(&b, ", catastrophe: %v", r.catastrophe)
	}
	for k, o := range r.outcomes {
		if o.isErr {
			fmt.Fprintf(&b, ", %v: error(%v)", k, o.err)
		} else {
			fmt.Fprintf(&b, ", %v: %v", k, o.value)
		}
	}
	b.WriteString("}")
	return b.String()
}
