package handlers

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/beacon/internal/notes"
	"github.com/btouchard/beacon/internal/notify"
)

// ListNotes returns a handler that lists note summaries, optionally
// filtered by tags. Content is deliberately left out; callers fetch
// the full note with get_note once they know which one they want.
func ListNotes(nm *notes.Manager, em *notify.Emitter) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		tags := stringSlice(args, "tags")

		list, err := nm.List(notes.ListFilter{Tags: tags})
		if err != nil {
			return jsonError(err), nil
		}

		em.NotesListed(len(list), tags)

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
		return jsonResult(map[string]any{"notes": summaries, "count": len(summaries)}), nil
	}
}

// GetNote returns a handler that fetches one note in full.
func GetNote(nm *notes.Manager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		noteID, _ := args["note_id"].(string)
		if noteID == "" {
			return mcp.NewToolResultError("note_id is required"), nil
		}

		n, err := nm.Get(noteID)
		if err != nil {
			return jsonError(err), nil
		}
		return jsonResult(n), nil
	}
}

// WriteNote returns a handler that creates or updates a note. Without
// note_id a new note is created under a slug derived from the title;
// with note_id the existing note is updated in place.
func WriteNote(nm *notes.Manager, em *notify.Emitter) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		content, _ := args["content"].(string)
		if content == "" {
			return mcp.NewToolResultError("content is required"), nil
		}

		in := notes.WriteInput{Content: content, Tags: stringSlice(args, "tags")}
		in.ID, _ = args["note_id"].(string)
		in.Title, _ = args["title"].(string)
		in.Summary, _ = args["summary"].(string)

		n, created, err := nm.Write(in)
		if err != nil {
			return jsonError(err), nil
		}

		em.NoteWritten(n, created)

		return jsonResult(map[string]any{"note": n, "created": created}), nil
	}
}

// DeleteNote returns a handler that removes a note.
func DeleteNote(nm *notes.Manager, em *notify.Emitter) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		noteID, _ := args["note_id"].(string)
		if noteID == "" {
			return mcp.NewToolResultError("note_id is required"), nil
		}

		if err := nm.Delete(noteID); err != nil {
			return jsonError(err), nil
		}

		em.NoteDeleted(noteID)

		return jsonResult(map[string]any{"deleted": true, "note_id": noteID}), nil
	}
}
