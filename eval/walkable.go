package eval

import "context"

// Walkable is a read-only traversal interface over an evaluated dependency
// graph, handed out by engines that support diagnostic graph inspection.
// Implementations must tolerate concurrent readers.
type Walkable interface {
	// Done reports whether the key finished evaluating in this graph.
	Done(key Key) bool
	// Value returns the evaluated value for key, or nil if the key failed
	// or was never evaluated.
	Value(ctx context.Context, key Key) (Value, error)
	// Error returns the error descriptor for key, or nil if the key
	// succeeded or was never evaluated.
	Error(ctx context.Context, key Key) (*ErrorInfo, error)
	// DirectDeps returns the dependencies the key requested during its
	// last evaluation.
	DirectDeps(ctx context.Context, key Key) ([]Key, error)
	// ReverseDeps returns the keys that depend directly on key.
	ReverseDeps(ctx context.Context, key Key) ([]Key, error)
}
