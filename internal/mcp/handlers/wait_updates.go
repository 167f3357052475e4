package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/beacon/internal/event"
)

// WaitUpdates returns a handler that long-polls the event bus. The
// call parks until an event matching the filters arrives or the
// timeout expires; a missing timeout falls back to defaultWait. When
// the bus is shut down the caller gets a status:"error" payload
// instead of a protocol error, so polling loops can tell a server
// shutdown apart from a broken transport.
func WaitUpdates(bus *event.Bus, defaultWait time.Duration) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		wr := event.WaitRequest{
			Targets: stringSlice(args, "targets"),
			Timeout: defaultWait,
		}
		if id, ok := args["connection_id"].(string); ok && id != "" {
			wr.ConnectionID = id
		}
		switch v := args["priority_min"].(type) {
		case string:
			if v != "" {
				wr.MinPriority = event.ParsePriority(v)
			}
		case float64:
			wr.MinPriority = event.ParsePriority(v)
		}
		if v, ok := args["timeout"].(float64); ok {
			wr.Timeout = time.Duration(v * float64(time.Second))
		}
		if v, ok := args["since"].(float64); ok {
			since := int64(v)
			wr.Since = &since
		}

		res, err := bus.WaitForUpdates(ctx, wr)
		if err != nil {
			if errors.Is(err, event.ErrNotRunning) {
				return jsonResult(map[string]any{"status": "error", "error": err.Error()}), nil
			}
			return nil, err
		}
		return jsonResult(res), nil
	}
}
