package inspect

import (
	"path/filepath"
	"sync"

	"github.com/kbukum/evalgraph/logger"
)

// Watcher represents one connected event-stream consumer.
type Watcher struct {
	id      string
	pattern string      // Glob pattern matched against event types
	events  chan []byte // Channel for delivering serialized events
}

// NewWatcher creates a watcher that receives events whose type matches
// pattern. An empty pattern matches everything.
func NewWatcher(id, pattern string) *Watcher {
	if pattern == "" {
		pattern = "*"
	}
	return &Watcher{
		id:      id,
		pattern: pattern,
		events:  make(chan []byte, 256),
	}
}

// ID returns the watcher's unique identifier.
func (w *Watcher) ID() string {
	return w.id
}

// Pattern returns the watcher's event-type pattern.
func (w *Watcher) Pattern() string {
	return w.pattern
}

// Events returns the channel for receiving serialized events.
func (w *Watcher) Events() <-chan []byte {
	return w.events
}

// Send delivers data to the watcher's event channel.
// Returns false if the channel is full (watcher is slow).
func (w *Watcher) Send(data []byte) bool {
	select {
	case w.events <- data:
		return true
	default:
		logger.Warn("watcher channel full, dropping event", map[string]interface{}{
			"watcher_id": w.id,
		})
		return false
	}
}

// Close closes the watcher's event channel.
func (w *Watcher) Close() {
	close(w.events)
}

// Hub fans pass events out to connected watchers.
type Hub struct {
	watchers   map[string]*Watcher
	register   chan *Watcher
	unregister chan *Watcher
	broadcast  chan *envelope
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
}

// envelope pairs an event type with its serialized payload.
type envelope struct {
	eventType string
	data      []byte
}

// NewHub creates a new event hub.
func NewHub() *Hub {
	return &Hub{
		watchers:   make(map[string]*Watcher),
		register:   make(chan *Watcher),
		unregister: make(chan *Watcher),
		broadcast:  make(chan *envelope, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main event loop. It blocks until Stop is called.
// This should be run in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllWatchers()
			return

		case w := <-h.register:
			h.mu.Lock()
			h.watchers[w.id] = w
			h.mu.Unlock()
			logger.Debug("watcher registered", map[string]interface{}{
				"watcher_id":     w.id,
				"pattern":        w.pattern,
				"total_watchers": h.WatcherCount(),
			})

		case w := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.watchers[w.id]; ok {
				delete(h.watchers, w.id)
				w.Close()
			}
			h.mu.Unlock()
			logger.Debug("watcher unregistered", map[string]interface{}{
				"watcher_id": w.id,
			})

		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

// Stop signals the hub to shut down. It closes all watcher connections
// and causes Run to return. Safe to call multiple times.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

func (h *Hub) closeAllWatchers() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, w := range h.watchers {
		w.Close()
		delete(h.watchers, id)
	}
}

// Register adds a watcher to the hub.
func (h *Hub) Register(w *Watcher) {
	h.register <- w
}

// Unregister removes a watcher from the hub.
func (h *Hub) Unregister(w *Watcher) {
	h.unregister <- w
}

// Broadcast delivers data to every watcher whose pattern matches eventType.
// It never blocks: if the hub is saturated the event is dropped, since
// inspection is best-effort and must not stall evaluation.
func (h *Hub) Broadcast(eventType string, data []byte) {
	select {
	case h.broadcast <- &envelope{eventType: eventType, data: data}:
	default:
		logger.Debug("hub saturated, dropping event", map[string]interface{}{
			"event_type": eventType,
		})
	}
}

// deliver sends an envelope to matching watchers.
// Called from the hub's main goroutine.
func (h *Hub) deliver(env *envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, w := range h.watchers {
		matched, err := filepath.Match(w.pattern, env.eventType)
		if err != nil {
			logger.Error("watcher pattern match error", map[string]interface{}{
				"pattern": w.pattern,
				"error":   err.Error(),
			})
			continue
		}
		if matched {
			w.Send(env.data)
		}
	}
}

// WatcherCount returns the number of connected watchers.
func (h *Hub) WatcherCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

// WatcherIDs returns the IDs of all connected watchers.
func (h *Hub) WatcherIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.watchers))
	for id := range h.watchers {
		ids = append(ids, id)
	}
	return ids
}
