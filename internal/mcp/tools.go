package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/beacon/internal/mcp/handlers"
)

func registerTools(s *server.MCPServer, deps *Deps) {
	// wait_for_updates — Long-poll for new events
	s.AddTool(
		mcp.NewTool("wait_for_updates",
			mcp.WithDescription("Wait for new events on the server. Blocks until a matching event arrives or the timeout expires — call this in a loop instead of polling. Pass timeout 0 to probe the backlog and return immediately."),
			mcp.WithArray("targets",
				mcp.Description("Only wake for these targets (e.g. 'note', 'task'). Empty matches everything."),
				mcp.WithStringItems(),
			),
			mcp.WithNumber("timeout",
				mcp.Description("Maximum seconds to wait (default: 30, capped at 300). 0 returns immediately."),
			),
			mcp.WithNumber("since",
				mcp.Description("Only consider events with an id greater than this. If omitted, resumes from the connection's last delivered event."),
			),
			mcp.WithString("priority_min",
				mcp.Description("Ignore events below this priority"),
				mcp.Enum("LOW", "NORMAL", "HIGH", "CRITICAL"),
			),
			mcp.WithString("connection_id",
				mcp.Description("Identifies the caller across calls so the event cursor is remembered (default: 'claude')"),
			),
		),
		handlers.WaitUpdates(deps.Bus, deps.DefaultWait),
	)

	// sync_changes — Catch up after a gap
	s.AddTool(
		mcp.NewTool("sync_changes",
			mcp.WithDescription("Fetch every event that happened after last_sync_id, plus the cursor to use next time. When history_truncated is true the event log no longer covers the gap — call again with include_full_state to rebuild."),
			mcp.WithNumber("last_sync_id",
				mcp.Description("The next_sync_id returned by the previous call. 0 fetches everything still in the log."),
			),
			mcp.WithBoolean("include_full_state",
				mcp.Description("Also load complete notes and tasks snapshots"),
			),
			mcp.WithString("connection_id",
				mcp.Description("Identifies the caller across calls (default: 'claude')"),
			),
		),
		handlers.SyncChanges(deps.Bus, deps.Snapshots),
	)

	// task_create — Create a task
	s.AddTool(
		mcp.NewTool("task_create",
			mcp.WithDescription("Create a task. Tasks get sequential ids (task-1, task-2, ...) and start in status 'todo'."),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Short title of the task"),
			),
			mcp.WithString("description",
				mcp.Description("Longer free-form description"),
			),
			mcp.WithString("priority",
				mcp.Description("Task priority (default: medium)"),
				mcp.Enum("low", "medium", "high"),
			),
		),
		handlers.TaskCreate(deps.Tasks, deps.Emitter),
	)

	// task_list — List tasks
	s.AddTool(
		mcp.NewTool("task_list",
			mcp.WithDescription("List tasks in creation order, optionally filtered by status."),
			mcp.WithString("status",
				mcp.Description("Filter by status"),
				mcp.Enum("all", "todo", "in_progress", "done"),
			),
		),
		handlers.TaskList(deps.Tasks, deps.Emitter),
	)

	// task_update — Update a task
	s.AddTool(
		mcp.NewTool("task_update",
			mcp.WithDescription("Update a task. Only the fields you pass are changed."),
			mcp.WithString("task_id",
				mcp.Required(),
				mcp.Description("The task id (e.g. 'task-3')"),
			),
			mcp.WithString("title",
				mcp.Description("New title"),
			),
			mcp.WithString("description",
				mcp.Description("New description"),
			),
			mcp.WithString("status",
				mcp.Description("New status"),
				mcp.Enum("todo", "in_progress", "done"),
			),
			mcp.WithString("priority",
				mcp.Description("New priority"),
				mcp.Enum("low", "medium", "high"),
			),
		),
		handlers.TaskUpdate(deps.Tasks, deps.Emitter),
	)

	// task_delete — Delete a task
	s.AddTool(
		mcp.NewTool("task_delete",
			mcp.WithDescription("Delete a task permanently."),
			mcp.WithString("task_id",
				mcp.Required(),
				mcp.Description("The task id to delete"),
			),
		),
		handlers.TaskDelete(deps.Tasks, deps.Emitter),
	)

	// list_notes — List note summaries
	s.AddTool(
		mcp.NewTool("list_notes",
			mcp.WithDescription("List notes with their summaries, newest first. Content is omitted — use get_note to read a note in full."),
			mcp.WithArray("tags",
				mcp.Description("Only notes carrying at least one of these tags"),
				mcp.WithStringItems(),
			),
		),
		handlers.ListNotes(deps.Notes, deps.Emitter),
	)

	// get_note — Read one note
	s.AddTool(
		mcp.NewTool("get_note",
			mcp.WithDescription("Read a note in full, including its content."),
			mcp.WithString("note_id",
				mcp.Required(),
				mcp.Description("The note id (slug) as returned by list_notes or write_note"),
			),
		),
		handlers.GetNote(deps.Notes),
	)

	// write_note — Create or update a note
	s.AddTool(
		mcp.NewTool("write_note",
			mcp.WithDescription("Create or update a note. Without note_id a new note is created and its id is derived from the title; with note_id the existing note is updated in place."),
			mcp.WithString("title",
				mcp.Description("Note title. Required when creating; when updating, an empty title keeps the current one."),
			),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("Full note content"),
			),
			mcp.WithString("summary",
				mcp.Description("Short summary. Derived from the content when omitted."),
			),
			mcp.WithArray("tags",
				mcp.Description("Tags for filtering, lowercased and de-duplicated"),
				mcp.WithStringItems(),
			),
			mcp.WithString("note_id",
				mcp.Description("Id of an existing note to update"),
			),
		),
		handlers.WriteNote(deps.Notes, deps.Emitter),
	)

	// delete_note — Delete a note
	s.AddTool(
		mcp.NewTool("delete_note",
			mcp.WithDescription("Delete a note permanently."),
			mcp.WithString("note_id",
				mcp.Required(),
				mcp.Description("The note id to delete"),
			),
		),
		handlers.DeleteNote(deps.Notes, deps.Emitter),
	)

	// system_info — Server and bus diagnostics
	s.AddTool(
		mcp.NewTool("system_info",
			mcp.WithDescription("Report server host, runtime, uptime, and event bus metrics."),
		),
		handlers.SystemInfo(deps.Version, deps.StartedAt, deps.Bus),
	)

	// calculate — Evaluate an expression
	s.AddTool(
		mcp.NewTool("calculate",
			mcp.WithDescription("Evaluate an arithmetic or boolean expression and return the result."),
			mcp.WithString("expression",
				mcp.Required(),
				mcp.Description("The expression to evaluate (e.g. '2 + 3 * 4')"),
			),
		),
		handlers.Calculate(),
	)

	// text_analyze — Basic text statistics
	s.AddTool(
		mcp.NewTool("text_analyze",
			mcp.WithDescription("Compute statistics over a piece of text: character, word, line and sentence counts, average word length, and the most frequent words."),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("The text to analyze"),
			),
		),
		handlers.TextAnalyze(),
	)
}
