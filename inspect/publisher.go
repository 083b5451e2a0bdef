package inspect

import (
	"encoding/json"

	"github.com/kbukum/evalgraph/engine"
	"github.com/kbukum/evalgraph/logger"
)

// Publisher forwards evaluator pass events to a hub as JSON.
// Attach it with evaluator.Subscribe(publisher.Listen).
type Publisher struct {
	hub *Hub
	log *logger.Logger
}

// NewPublisher creates a publisher targeting the given hub.
func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{
		hub: hub,
		log: logger.WithComponent("inspect"),
	}
}

// Listen is an engine.Listener that serializes events and hands them to
// the hub. It never blocks the evaluating goroutine: the hub's broadcast
// channel is buffered and slow watchers drop frames.
func (p *Publisher) Listen(ev engine.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("failed to serialize pass event", map[string]interface{}{
			"type":  string(ev.Type),
			"error": err.Error(),
		})
		return
	}
	p.hub.Broadcast(string(ev.Type), data)
}
