package engine

import (
	"sort"
	"sync"
)

// Registry maps key kinds to their evaluation functions.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register adds the evaluation function for a key kind.
func (r *Registry) Register(kind string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[kind] = fn
}

// RegisterFunc adds a plain function as the evaluator for a key kind.
func (r *Registry) RegisterFunc(kind string, fn FuncFn) {
	r.Register(kind, fn)
}

// Get retrieves the function for a key kind.
func (r *Registry) Get(kind string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[kind]
	return fn, ok
}

// List returns sorted kinds of all registered functions.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.funcs))
	for kind := range r.funcs {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
