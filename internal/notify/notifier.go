package notify

import (
	"github.com/btouchard/beacon/internal/event"
)

// Notifier relays bus events to an outside channel (MCP clients, logs).
type Notifier interface {
	Notify(ev event.Event)
}

// Hub dispatches events to multiple notifiers.
type Hub struct {
	notifiers []Notifier
}

// NewHub creates a Hub with the given notifiers.
func NewHub(notifiers ...Notifier) *Hub {
	return &Hub{notifiers: notifiers}
}

// Notify sends an event to all registered notifiers.
func (h *Hub) Notify(ev event.Event) {
	for _, n := range h.notifiers {
		go n.Notify(ev)
	}
}
