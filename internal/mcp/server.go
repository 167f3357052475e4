package mcp

import (
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/beacon/internal/event"
	"github.com/btouchard/beacon/internal/notes"
	"github.com/btouchard/beacon/internal/notify"
	"github.com/btouchard/beacon/internal/tasks"
)

// Deps holds shared dependencies injected into MCP handlers.
type Deps struct {
	Bus         *event.Bus
	Notes       *notes.Manager
	Tasks       *tasks.Manager
	Emitter     *notify.Emitter
	Snapshots   event.SnapshotProvider
	DefaultWait time.Duration
	StartedAt   time.Time
	Version     string
}

// NewServer creates and configures the MCP server with all tools and
// resources registered.
func NewServer(deps *Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"Beacon",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithLogging(),
	)

	registerTools(s, deps)
	registerResources(s, deps)

	return s
}
