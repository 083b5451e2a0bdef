package inspect

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/evalgraph/logger"
)

// subscribedEvent is the first frame sent on a new stream.
type subscribedEvent struct {
	WatcherID string `json:"watcher_id"`
	Pattern   string `json:"pattern"`
}

// ServeStream streams pass events to the client as Server-Sent Events.
// The optional "pattern" query parameter filters by event type using
// glob syntax (e.g. "node_*").
func ServeStream(hub *Hub, w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	watcherID := uuid.NewString()

	// Streams are long-lived and must not be killed by the server's
	// WriteTimeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logger.Warn("could not disable write deadline", map[string]interface{}{
			"watcher_id": watcherID,
			"error":      err.Error(),
		})
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	watcher := NewWatcher(watcherID, r.URL.Query().Get("pattern"))
	hub.Register(watcher)
	defer hub.Unregister(watcher)

	subscribed, _ := json.Marshal(subscribedEvent{
		WatcherID: watcherID,
		Pattern:   watcher.Pattern(),
	})
	_, _ = fmt.Fprintf(w, "event: subscribed\n")
	_, _ = fmt.Fprintf(w, "data: %s\n\n", subscribed)
	flusher.Flush()

	logger.Debug("stream opened", map[string]interface{}{
		"watcher_id":  watcherID,
		"pattern":     watcher.Pattern(),
		"remote_addr": r.RemoteAddr,
	})

	// Keep-alive interval should stay below proxy timeouts (typically 60s).
	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("stream closed", map[string]interface{}{
				"watcher_id": watcherID,
				"reason":     ctx.Err().Error(),
			})
			return

		case event, ok := <-watcher.Events():
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()

		case <-keepAlive.C:
			// SSE comment lines keep proxies from dropping the connection.
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}
