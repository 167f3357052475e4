package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/btouchard/beacon/internal/notes"
)

// ListNotes returns note summaries, newest first, optionally filtered
// by a comma-separated ?tags= list. Content is omitted; the UI loads
// a single note when it needs the text.
func (h *Handlers) ListNotes(w http.ResponseWriter, r *http.Request) {
	var tags []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	list, err := h.Notes.List(notes.ListFilter{Tags: tags})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]map[string]any, 0, len(list))
	for _, n := range list {
		summaries = append(summaries, map[string]any{
			"id":         n.ID,
			"title":      n.Title,
			"summary":    n.Summary,
			"tags":       n.Tags,
			"updated_at": n.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": summaries, "count": len(summaries)})
}

// GetNote returns one note in full.
func (h *Handlers) GetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "note_id")

	n, err := h.Notes.Get(id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, notes.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, n)
}

type noteRequest struct {
	NoteID  string   `json:"note_id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// CreateNote creates a note, or updates one when note_id is given.
// Successful mutations emit an event exactly like the MCP write_note
// tool does.
func (h *Handlers) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	n, created, err := h.Notes.Write(notes.WriteInput{
		ID:      req.NoteID,
		Title:   req.Title,
		Content: req.Content,
		Summary: req.Summary,
		Tags:    req.Tags,
	})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, notes.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	h.Emitter.NoteWritten(n, created)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"note": n, "created": created})
}

// DeleteNote removes a note and emits the deletion.
func (h *Handlers) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "note_id")

	if err := h.Notes.Delete(id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, notes.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	h.Emitter.NoteDeleted(id)

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "note_id": id})
}
