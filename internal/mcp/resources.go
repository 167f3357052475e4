package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// noteURIPrefix is the resource namespace for notes. The notifier
// announces changed notes under the same URIs.
const noteURIPrefix = "notes://notes/"

func registerResources(s *server.MCPServer, deps *Deps) {
	// note — full note content by id
	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			noteURIPrefix+"{note_id}",
			"note",
			mcp.WithTemplateDescription("Full note content as JSON, addressed by note id."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		readNote(deps),
	)
}

func readNote(deps *Deps) server.ResourceTemplateHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := strings.TrimPrefix(req.Params.URI, noteURIPrefix)
		if id == "" || id == req.Params.URI || strings.Contains(id, "/") {
			return nil, fmt.Errorf("invalid note URI %q", req.Params.URI)
		}

		n, err := deps.Notes.Get(id)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("encoding note %s: %w", id, err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}
