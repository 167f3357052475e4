package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// jsonResult marshals v into the tool's text payload. Every tool in
// this package answers with compact JSON so callers can parse results
// without scraping prose.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %s", err))
	}
	return mcp.NewToolResultText(string(data))
}

// jsonError wraps a domain failure in an {"error": ...} payload.
// Domain outcomes (not found, validation) stay inside the tool result;
// only malformed requests become protocol-level tool errors.
func jsonError(err error) *mcp.CallToolResult {
	return jsonResult(map[string]string{"error": err.Error()})
}

// stringSlice reads a JSON string array argument, skipping entries of
// any other type.
func stringSlice(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
