package eval

import "fmt"

// Builder accumulates per-key outcomes during one evaluation pass (or
// across merged passes) and seals them into an immutable Result.
//
// A Builder is owned by a single evaluation engine and is not safe for
// concurrent mutation; the engine must feed it from one goroutine or
// synchronize externally. Recording both a success and a failure for the
// same key, or storing a nil payload, signals a defect in the engine and
// panics rather than being silently coerced.
type Builder[T Value] struct {
	outcomes    map[Key]outcome[T]
	hasError    bool
	catastrophe error
	graph       Walkable
}

// NewBuilder creates an empty Builder.
func NewBuilder[T Value]() *Builder[T] {
	return &Builder[T]{outcomes: make(map[Key]outcome[T])}
}

// AddResult records a success for key. An error must not already be
// recorded for the key, and the value must be non-nil.
func (b *Builder[T]) AddResult(key Key, value T) *Builder[T] {
	if any(value) == nil {
		panic(fmt.Sprintf("eval: nil value recorded for key %v", key))
	}
	if prev, ok := b.outcomes[key]; ok && prev.isErr {
		panic(fmt.Sprintf("eval: key %v in both results and errors: value=%v error=%v", key, value, prev.err))
	}
	b.outcomes[key] = outcome[T]{value: value}
	return b
}

// AddError records a failure for key. A success must not already be
// recorded for the key, and the descriptor must be non-nil.
func (b *Builder[T]) AddError(key Key, errInfo *ErrorInfo) *Builder[T] {
	if errInfo == nil {
		panic(fmt.Sprintf("eval: nil error recorded for key %v", key))
	}
	if prev, ok := b.outcomes[key]; ok && !prev.isErr {
		panic(fmt.Sprintf("eval: key %v in both results and errors: value=%v error=%v", key, prev.value, errInfo))
	}
	b.outcomes[key] = outcome[T]{err: errInfo, isErr: true}
	return b
}

// SetHasError sets the overall-error flag. The flag must be set explicitly
// because a pass can encounter errors that top-level keys recover from,
// leaving the error map empty while the pass still failed somewhere.
func (b *Builder[T]) SetHasError(hasError bool) *Builder[T] {
	b.hasError = hasError
	return b
}

// SetCatastrophe records the unrecoverable failure that aborted the pass.
// If called multiple times the last write wins.
func (b *Builder[T]) SetCatastrophe(err error) *Builder[T] {
	b.catastrophe = err
	return b
}

// SetGraph attaches the walkable evaluated graph.
func (b *Builder[T]) SetGraph(graph Walkable) *Builder[T] {
	b.graph = graph
	return b
}

// MergeFrom folds a previously built Result into the builder: all of its
// successes and errors are copied in and its overall-error flag is ORed.
// Merged passes are expected to cover disjoint key sets; on a collision
// the merged entry wins. Catastrophe and graph are not merged.
func (b *Builder[T]) MergeFrom(other *Result[T]) *Builder[T] {
	for k, o := range other.outcomes {
		b.outcomes[k] = o
	}
	b.hasError = b.hasError || other.hasError
	return b
}

// Build validates and snapshots the accumulated state into an immutable
// Result. Building with recorded errors but an unset overall-error flag
// panics. The builder's maps are copied, so the builder may be reused or
// discarded afterwards without affecting the returned Result.
func (b *Builder[T]) Build() *Result[T] {
	outcomes := make(map[Key]outcome[T], len(b.outcomes))
	errCount := 0
	for k, o := range b.outcomes {
		if o.isErr {
			errCount++
		}
		outcomes[k] = o
	}
	if errCount > 0 && !b.hasError {
		panic(fmt.Sprintf("eval: building result with %d recorded errors but hasError unset", errCount))
	}
	return &Result[T]{
		outcomes:    outcomes,
		hasError:    b.hasError,
		catastrophe: b.catastrophe,
		graph:       b.graph,
	}
}
