package notify

import (
	"sync"
	"time"

	"github.com/btouchard/beacon/internal/event"
)

// MCPSender abstracts the mcp-go server notification methods.
// Defined consumer-side per Go convention.
type MCPSender interface {
	SendNotificationToAllClients(method string, params map[string]any)
}

// MCPNotifier pushes change notifications to connected MCP clients:
// every event as a beacon event notification, plus the standard
// resource notifications for notes.
type MCPNotifier struct {
	sender   MCPSender
	debounce time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time // resource URI → last resources/updated time
}

// NewMCPNotifier creates an MCPNotifier with the given debounce interval
// for repeated resource updates. Creations and deletions are always
// sent immediately.
func NewMCPNotifier(sender MCPSender, debounce time.Duration) *MCPNotifier {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &MCPNotifier{
		sender:   sender,
		debounce: debounce,
		lastSent: make(map[string]time.Time),
	}
}

// Notify relays one bus event to all MCP clients.
func (n *MCPNotifier) Notify(ev event.Event) {
	n.sender.SendNotificationToAllClients("notifications/beacon/event", map[string]any{
		"id":        ev.ID,
		"type":      string(ev.Type),
		"target":    ev.Target,
		"priority":  ev.Priority.String(),
		"payload":   ev.Payload,
		"ui_hint":   ev.UIHint,
		"timestamp": ev.Timestamp.Format(time.RFC3339),
	})

	if ev.Target != "note" {
		return
	}

	switch ev.Type {
	case event.TypeCreate:
		n.sender.SendNotificationToAllClients("notifications/resources/list_changed", map[string]any{})
	case event.TypeDelete:
		n.clearDebounce(noteURI(ev))
		n.sender.SendNotificationToAllClients("notifications/resources/list_changed", map[string]any{})
	case event.TypeUpdate:
		n.sendResourceUpdated(noteURI(ev))
	}
}

// sendResourceUpdated sends a notifications/resources/updated with debounce.
func (n *MCPNotifier) sendResourceUpdated(uri string) {
	if uri == "" {
		return
	}

	n.mu.Lock()
	last, ok := n.lastSent[uri]
	if ok && time.Since(last) < n.debounce {
		n.mu.Unlock()
		return
	}
	n.lastSent[uri] = time.Now()
	n.mu.Unlock()

	n.sender.SendNotificationToAllClients("notifications/resources/updated", map[string]any{
		"uri": uri,
	})
}

// clearDebounce removes the debounce entry for a deleted note.
func (n *MCPNotifier) clearDebounce(uri string) {
	if uri == "" {
		return
	}
	n.mu.Lock()
	delete(n.lastSent, uri)
	n.mu.Unlock()
}

func noteURI(ev event.Event) string {
	id, _ := ev.Payload["note_id"].(string)
	if id == "" {
		return ""
	}
	return "notes://notes/" + id
}
