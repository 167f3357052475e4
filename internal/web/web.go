// Package web serves the browser-facing side of Beacon: the REST
// notes API, the SSE event stream, the health endpoint, and a small
// single-page UI. The MCP surface lives elsewhere; everything here
// shares the same bus and managers.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/btouchard/beacon/internal/event"
	"github.com/btouchard/beacon/internal/notes"
	"github.com/btouchard/beacon/internal/notify"
)

// Handlers bundles the dependencies of the web routes.
type Handlers struct {
	Bus       *event.Bus
	Notes     *notes.Manager
	Emitter   *notify.Emitter
	Heartbeat time.Duration
	StartedAt time.Time
	Version   string
}

// Register mounts all web routes on the router.
func (h *Handlers) Register(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/app", http.StatusTemporaryRedirect)
	})
	r.Get("/app", h.AppPage)
	r.Get("/events", h.Events)
	r.Get("/health", h.Health)
	r.Get("/api/notes", h.ListNotes)
	r.Get("/api/notes/{note_id}", h.GetNote)
	r.Post("/notes", h.CreateNote)
	r.Delete("/notes/{note_id}", h.DeleteNote)
}

// writeJSON writes v with the given status. Encoding failures are
// not recoverable at this point; the status line already went out.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
