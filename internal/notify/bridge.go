package notify

import (
	"fmt"
	"log/slog"

	"github.com/btouchard/beacon/internal/event"
)

// bridgeConnID identifies the bridge in the bus connection pool.
const bridgeConnID = "notify-bridge"

// Bridge consumes the event stream and fans it out to notifiers.
type Bridge struct {
	bus *event.Bus
	hub *Hub

	sub  *event.Subscription
	stop chan struct{}
	done chan struct{}
}

// NewBridge creates a Bridge feeding the given notifiers from the bus.
func NewBridge(bus *event.Bus, notifiers ...Notifier) *Bridge {
	return &Bridge{bus: bus, hub: NewHub(notifiers...)}
}

// Start subscribes to the bus and begins forwarding events.
// Start and Stop must not be called concurrently.
func (b *Bridge) Start() error {
	sub, err := b.bus.Subscribe(bridgeConnID, event.Filter{}, false)
	if err != nil {
		return fmt.Errorf("subscribing notify bridge: %w", err)
	}

	b.sub = sub
	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go b.run()

	slog.Info("notify bridge started")
	return nil
}

func (b *Bridge) run() {
	defer close(b.done)

	for ev := range b.sub.C {
		b.hub.Notify(ev)
	}

	select {
	case <-b.stop:
	default:
		slog.Warn("notify bridge subscription closed unexpectedly")
	}
}

// Stop detaches from the bus and waits for the forwarding loop to exit.
func (b *Bridge) Stop() {
	if b.stop == nil {
		return
	}
	close(b.stop)
	b.sub.Close()
	<-b.done
	b.stop = nil

	slog.Info("notify bridge stopped")
}
