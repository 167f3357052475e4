package web

import (
	"net/http"
	"time"
)

// Health reports server liveness plus the event bus metrics: total
// emitted events, the 60-second emission rate, and the number of
// active connections.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	m := h.Bus.Metrics()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        h.Version,
		"uptime_seconds": int64(time.Since(h.StartedAt).Seconds()),
		"events": map[string]any{
			"total_events":       m.TotalEvents,
			"events_per_second":  m.EventsPerSecond,
			"active_connections": m.ActiveConnections,
		},
	})
}
