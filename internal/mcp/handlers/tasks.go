package handlers

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/beacon/internal/notify"
	"github.com/btouchard/beacon/internal/tasks"
)

// TaskCreate returns a handler that creates a task. Priority defaults
// to medium when omitted.
func TaskCreate(tm *tasks.Manager, em *notify.Emitter) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		title, _ := args["title"].(string)
		if title == "" {
			return mcp.NewToolResultError("title is required"), nil
		}

		in := tasks.CreateInput{Title: title}
		in.Description, _ = args["description"].(string)
		in.Priority, _ = args["priority"].(string)

		t, err := tm.Create(in)
		if err != nil {
			return jsonError(err), nil
		}

		em.TaskCreated(t)

		return jsonResult(map[string]any{"task": t}), nil
	}
}

// TaskList returns a handler that lists tasks in creation order,
// optionally filtered by status.
func TaskList(tm *tasks.Manager, em *notify.Emitter) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		f := tasks.ListFilter{}
		f.Status, _ = args["status"].(string)

		list, err := tm.List(f)
		if err != nil {
			return jsonError(err), nil
		}

		em.TasksListed(len(list))

		return jsonResult(map[string]any{"tasks": list, "count": len(list)}), nil
	}
}

// TaskUpdate returns a handler that applies partial changes to a
// task. Only the fields present in the request are touched.
func TaskUpdate(tm *tasks.Manager, em *notify.Emitter) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		taskID, _ := args["task_id"].(string)
		if taskID == "" {
			return mcp.NewToolResultError("task_id is required"), nil
		}

		// Empty strings count as absent, so a client sending every
		// field with "" for the untouched ones does not clobber them.
		in := tasks.UpdateInput{}
		if v, ok := args["title"].(string); ok && v != "" {
			in.Title = &v
		}
		if v, ok := args["description"].(string); ok && v != "" {
			in.Description = &v
		}
		if v, ok := args["status"].(string); ok && v != "" {
			in.Status = &v
		}
		if v, ok := args["priority"].(string); ok && v != "" {
			in.Priority = &v
		}

		t, err := tm.Update(taskID, in)
		if err != nil {
			return jsonError(err), nil
		}

		em.TaskUpdated(t)

		return jsonResult(map[string]any{"task": t}), nil
	}
}

// TaskDelete returns a handler that removes a task.
func TaskDelete(tm *tasks.Manager, em *notify.Emitter) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		taskID, _ := args["task_id"].(string)
		if taskID == "" {
			return mcp.NewToolResultError("task_id is required"), nil
		}

		if err := tm.Delete(taskID); err != nil {
			return jsonError(err), nil
		}

		em.TaskDeleted(taskID)

		return jsonResult(map[string]any{"deleted": true, "task_id": taskID}), nil
	}
}
