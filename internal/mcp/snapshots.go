package mcp

import (
	"context"
	"fmt"

	"github.com/btouchard/beacon/internal/notes"
	"github.com/btouchard/beacon/internal/tasks"
)

// Snapshots adapts the notes and tasks managers to the bus's snapshot
// interface, backing sync_changes calls that ask for full state. Note
// snapshots carry summaries only; clients read full content through
// get_note or the note resource.
type Snapshots struct {
	Notes *notes.Manager
	Tasks *tasks.Manager
}

// Kinds names the state collections a snapshot can include.
func (s *Snapshots) Kinds() []string {
	return []string{"notes", "tasks"}
}

// Snapshot loads the current state of one collection.
func (s *Snapshots) Snapshot(_ context.Context, kind string) ([]map[string]any, error) {
	switch kind {
	case "notes":
		list, err := s.Notes.List(notes.ListFilter{})
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(list))
		for _, n := range list {
			out = append(out, map[string]any{
				"id":         n.ID,
				"title":      n.Title,
				"summary":    n.Summary,
				"tags":       n.Tags,
				"updated_at": n.UpdatedAt,
			})
		}
		return out, nil

	case "tasks":
		list, err := s.Tasks.List(tasks.ListFilter{})
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(list))
		for _, t := range list {
			out = append(out, map[string]any{
				"id":          t.ID,
				"title":       t.Title,
				"description": t.Description,
				"status":      t.Status,
				"priority":    t.Priority,
				"updated_at":  t.UpdatedAt,
			})
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown snapshot kind %q", kind)
}
