// Package eval defines the core contract between a graph evaluation engine
// and its callers: opaque item keys, evaluated values, structured error
// descriptors, and the immutable Result produced at the end of an
// evaluation pass.
//
// A Result is assembled through a Builder owned by the engine. The builder
// enforces the central invariant that a key is either a success or a
// failure, never both, and seals the accumulated state into an immutable
// snapshot that is safe for unsynchronized concurrent reads.
package eval
