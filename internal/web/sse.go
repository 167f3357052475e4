package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/btouchard/beacon/internal/event"
)

// Events streams bus events to the client as Server-Sent Events.
//
// A client that reconnects passes its last-seen event id — through
// the standard Last-Event-ID header or a ?since= query — and gets the
// still-resident backlog replayed before live delivery starts, with
// no gap between the two. Frames carry the event id, so EventSource
// resumes for free. Comment heartbeats keep proxies from reaping
// quiet connections.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	connID := r.URL.Query().Get("connection_id")
	if connID == "" {
		connID = "web-" + uuid.NewString()
	}

	f := event.Filter{}
	if targets := r.URL.Query().Get("targets"); targets != "" {
		for _, t := range strings.Split(targets, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Targets = append(f.Targets, t)
			}
		}
	}
	if pm := r.URL.Query().Get("priority_min"); pm != "" {
		f.MinPriority = event.ParsePriority(pm)
	}

	since, replay := replayCursor(r)
	f.Since = since

	sub, err := h.Bus.Subscribe(connID, f, replay)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	slog.Info("sse client connected",
		"connection_id", connID,
		"replay", replay,
		"backlog", len(sub.Backlog))

	for _, ev := range sub.Backlog {
		if !writeFrame(w, flusher, ev) {
			return
		}
	}

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Info("sse client disconnected", "connection_id", connID)
			return

		case ev, ok := <-sub.C:
			if !ok {
				// Dropped by the bus: we fell behind or it stopped.
				slog.Info("sse subscription closed", "connection_id", connID)
				return
			}
			if !writeFrame(w, flusher, ev) {
				return
			}

		case t := <-ticker.C:
			if _, err := fmt.Fprintf(w, ": heartbeat %s\n\n", t.UTC().Format(time.RFC3339)); err != nil {
				return
			}
			flusher.Flush()
			h.Bus.Touch(connID)
		}
	}
}

// replayCursor extracts the client's last-seen event id. The header
// wins over the query parameter; absence means live-only.
func replayCursor(r *http.Request) (int64, bool) {
	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = r.URL.Query().Get("since")
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// writeFrame emits one event as an id-tagged, typed, blank-line
// terminated SSE frame and flushes it. Returns false when the
// connection is gone.
func writeFrame(w http.ResponseWriter, flusher http.Flusher, ev event.Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("encoding sse event", "id", ev.ID, "error", err)
		return true
	}
	if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, data); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
