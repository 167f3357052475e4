package handlers

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/beacon/internal/event"
)

// SyncChanges returns a handler that catches a client up after a gap:
// every event since last_sync_id plus the cursor for the next call.
// With include_full_state it also loads complete snapshots from the
// provider, which is the fallback when history_truncated reports that
// eviction ate part of the range.
func SyncChanges(bus *event.Bus, snapshots event.SnapshotProvider) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		sr := event.SyncRequest{}
		if id, ok := args["connection_id"].(string); ok && id != "" {
			sr.ConnectionID = id
		}
		if v, ok := args["last_sync_id"].(float64); ok {
			sr.LastSyncID = int64(v)
		}
		if v, ok := args["include_full_state"].(bool); ok {
			sr.IncludeState = v
		}

		res, err := bus.SyncChanges(ctx, sr, snapshots)
		if err != nil {
			return jsonResult(map[string]any{"status": "error", "error": err.Error()}), nil
		}
		return jsonResult(res), nil
	}
}
