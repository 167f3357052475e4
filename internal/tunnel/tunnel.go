package tunnel

import (
	"context"
	"net"
)

// Tunnel hands the HTTP server a listener reachable from a public
// HTTPS URL. Start reports that URL; Listener is valid until Close.
type Tunnel interface {
	Start(ctx context.Context, localAddr string) (publicURL string, err error)
	Listener() net.Listener
	Close() error
}
