package eval

import "fmt"

// Key names one unit of evaluation work. Implementations must be comparable
// so keys can serve as map keys; the result, the builder, and the graph all
// use Key as the join key across successes, failures, and dependencies.
type Key interface {
	// Kind groups keys by the function that evaluates them.
	Kind() string
	// Argument returns the logical argument the key wraps, stripped of the
	// key wrapper. Used for display and reporting.
	Argument() any
}

// Value is the opaque payload produced by successfully evaluating a Key.
// A stored value is never nil.
type Value interface{}

// NamedKey is a Key whose argument is a plain string. Most evaluation
// functions that key their work by name can use it directly.
type NamedKey struct {
	kind string
	name string
}

// NewKey creates a NamedKey for the given function kind and name.
func NewKey(kind, name string) NamedKey {
	return NamedKey{kind: kind, name: name}
}

func (k NamedKey) Kind() string  { return k.kind }
func (k NamedKey) Argument() any { return k.name }

func (k NamedKey) String() string {
	return fmt.Sprintf("%s:%s", k.kind, k.name)
}
