package logger

import (
	"strings"
	"time"
)

// ComponentRegistry tracks evaluator components during startup for summary display.
type ComponentRegistry struct {
	startTime time.Time
	engines   []EngineComponent
	functions []FunctionComponent
	listeners []ListenerComponent
	handlers  []HandlerComponent
	// apiPrefix holds the configured API prefix (eg: /inspect)
	apiPrefix string
}

// EngineComponent represents a configured evaluator instance.
type EngineComponent struct {
	Name        string
	Parallelism int
	KeepGoing   bool
	Status      string // "active", "inactive", "error"
}

// FunctionComponent represents a registered evaluation function kind.
type FunctionComponent struct {
	Kind   string
	Status string // "registered", "wrapped"
}

// ListenerComponent represents a pass-event listener.
type ListenerComponent struct {
	Name   string
	Status string
}

// HandlerComponent represents an HTTP handler/route.
type HandlerComponent struct {
	Method  string // "GET", "POST", etc.
	Path    string
	Handler string
}

// ComponentRegistryInstance is the global component registry.
var ComponentRegistryInstance = NewComponentRegistry()

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		startTime: time.Now(),
		engines:   make([]EngineComponent, 0),
		functions: make([]FunctionComponent, 0),
		listeners: make([]ListenerComponent, 0),
		handlers:  make([]HandlerComponent, 0),
	}
}

// SetAPIPrefix sets the API prefix (for example "/inspect") so route grouping
// can be done using the configured prefix instead of hard-coded values.
func (r *ComponentRegistry) SetAPIPrefix(prefix string) {
	r.apiPrefix = strings.TrimRight(prefix, "/")
}

// APIPrefix returns the configured API prefix.
func (r *ComponentRegistry) APIPrefix() string {
	return r.apiPrefix
}

// StartTime returns the registry creation time (startup).
func (r *ComponentRegistry) StartTime() time.Time {
	return r.startTime
}

// RegisterEngine registers an evaluator instance.
func (r *ComponentRegistry) RegisterEngine(name string, parallelism int, keepGoing bool, status string) {
	r.engines = append(r.engines, EngineComponent{
		Name:        name,
		Parallelism: parallelism,
		KeepGoing:   keepGoing,
		Status:      status,
	})
}

// RegisterFunction registers an evaluation function kind.
func (r *ComponentRegistry) RegisterFunction(kind, status string) {
	r.functions = append(r.functions, FunctionComponent{
		Kind:   kind,
		Status: status,
	})
}

// RegisterListener registers a pass-event listener.
func (r *ComponentRegistry) RegisterListener(name, status string) {
	r.listeners = append(r.listeners, ListenerComponent{
		Name:   name,
		Status: status,
	})
}

// RegisterHandler registers an HTTP handler.
func (r *ComponentRegistry) RegisterHandler(method, path, handler string) {
	r.handlers = append(r.handlers, HandlerComponent{
		Method:  method,
		Path:    path,
		Handler: handler,
	})
}

// Engines returns all registered evaluator instances.
func (r *ComponentRegistry) Engines() []EngineComponent {
	return r.engines
}

// Functions returns all registered function kinds.
func (r *ComponentRegistry) Functions() []FunctionComponent {
	return r.functions
}

// Listeners returns all registered listeners.
func (r *ComponentRegistry) Listeners() []ListenerComponent {
	return r.listeners
}

// Handlers returns all registered handler components.
func (r *ComponentRegistry) Handlers() []HandlerComponent {
	return r.handlers
}

// SetHandlers replaces the handler list (useful when collecting routes dynamically).
func (r *ComponentRegistry) SetHandlers(handlers []HandlerComponent) {
	r.handlers = handlers
}
