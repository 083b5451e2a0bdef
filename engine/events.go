package engine

import (
	"sync"
	"time"
)

// EventType identifies what happened during a pass.
type EventType string

const (
	// EventPassStarted is emitted when an evaluation pass begins.
	EventPassStarted EventType = "pass_started"
	// EventPassFinished is emitted when a pass produces its result.
	EventPassFinished EventType = "pass_finished"
	// EventNodeStarted is emitted when a node begins computing.
	EventNodeStarted EventType = "node_started"
	// EventNodeComputed is emitted when a node produces a value.
	EventNodeComputed EventType = "node_computed"
	// EventNodeFailed is emitted when a node produces an error.
	EventNodeFailed EventType = "node_failed"
	// EventNodeCached is emitted when a memoized outcome is reused.
	EventNodeCached EventType = "node_cached"
	// EventNodePruned is emitted when a dirty node is revalidated without
	// recomputation because its dependency fingerprints were unchanged.
	EventNodePruned EventType = "node_pruned"
	// EventNodeRetried is emitted before re-attempting a transient failure.
	EventNodeRetried EventType = "node_retried"
)

// Event describes one observable step of an evaluation pass.
type Event struct {
	Type       EventType `json:"type"`
	PassID     string    `json:"pass_id"`
	Key        string    `json:"key,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	Attempt    int       `json:"attempt,omitempty"`
	Roots      int       `json:"roots,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	Time       time.Time `json:"time"`
}

// Listener receives pass events. Listeners are called synchronously from
// evaluation goroutines and must return quickly; hand off to a channel for
// slow consumers.
type Listener func(Event)

type eventBus struct {
	mu        sync.RWMutex
	listeners []Listener
}

func (b *eventBus) add(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

func (b *eventBus) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	b.mu.RLock()
	listeners := b.listeners
	b.mu.RUnlock()
	for _, l := range listeners {
		l(ev)
	}
}
