package notify

import (
	"log/slog"

	"github.com/btouchard/beacon/internal/event"
	"github.com/btouchard/beacon/internal/notes"
	"github.com/btouchard/beacon/internal/tasks"
)

// Bus is the event sink the emitter needs.
// Defined consumer-side per Go convention.
type Bus interface {
	Emit(d event.Draft) (event.Event, error)
}

// Emitter translates domain changes into bus events. Emission failures
// are logged and swallowed: a missed notification must never fail the
// operation that caused it.
type Emitter struct {
	bus Bus
}

// NewEmitter creates an Emitter publishing to the given bus.
func NewEmitter(bus Bus) *Emitter {
	return &Emitter{bus: bus}
}

// NoteWritten reports a created or updated note.
func (e *Emitter) NoteWritten(n *notes.Note, created bool) {
	d := event.Draft{
		Type:     event.TypeUpdate,
		Target:   "note",
		Priority: event.PriorityNormal,
		Payload: map[string]any{
			"note_id": n.ID,
			"title":   n.Title,
			"summary": n.Summary,
			"tags":    n.Tags,
		},
		UIHint: "refresh",
	}
	if created {
		d.Type = event.TypeCreate
		d.Priority = event.PriorityHigh
		d.UIHint = "navigate_to"
	}
	e.emit(d)
}

// NoteDeleted reports a removed note.
func (e *Emitter) NoteDeleted(id string) {
	e.emit(event.Draft{
		Type:     event.TypeDelete,
		Target:   "note",
		Priority: event.PriorityHigh,
		Payload:  map[string]any{"note_id": id},
		UIHint:   "refresh",
	})
}

// NotesListed reports a completed note listing.
func (e *Emitter) NotesListed(count int, tags []string) {
	e.emit(event.Draft{
		Type:     event.TypeList,
		Target:   "note",
		Priority: event.PriorityLow,
		Payload:  map[string]any{"count": count, "tags": tags},
	})
}

// TaskCreated reports a new task.
func (e *Emitter) TaskCreated(t *tasks.Task) {
	e.emit(event.Draft{
		Type:     event.TypeCreate,
		Target:   "task",
		Priority: event.PriorityNormal,
		Payload:  taskPayload(t),
		UIHint:   "refresh",
	})
}

// TaskUpdated reports a changed task.
func (e *Emitter) TaskUpdated(t *tasks.Task) {
	e.emit(event.Draft{
		Type:     event.TypeUpdate,
		Target:   "task",
		Priority: event.PriorityNormal,
		Payload:  taskPayload(t),
		UIHint:   "refresh",
	})
}

// TaskDeleted reports a removed task.
func (e *Emitter) TaskDeleted(id string) {
	e.emit(event.Draft{
		Type:     event.TypeDelete,
		Target:   "task",
		Priority: event.PriorityHigh,
		Payload:  map[string]any{"task_id": id},
		UIHint:   "refresh",
	})
}

// TasksListed reports a completed task listing.
func (e *Emitter) TasksListed(count int) {
	e.emit(event.Draft{
		Type:     event.TypeList,
		Target:   "task",
		Priority: event.PriorityLow,
		Payload:  map[string]any{"count": count},
	})
}

func taskPayload(t *tasks.Task) map[string]any {
	return map[string]any{
		"task_id":  t.ID,
		"title":    t.Title,
		"status":   string(t.Status),
		"priority": string(t.Priority),
	}
}

func (e *Emitter) emit(d event.Draft) {
	if e == nil {
		return
	}
	if _, err := e.bus.Emit(d); err != nil {
		slog.Warn("event emission failed",
			"target", d.Target,
			"type", string(d.Type),
			"error", err)
	}
}
