package tunnel

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"

	ngroklib "golang.ngrok.com/ngrok"
	ngrokconfig "golang.ngrok.com/ngrok/config"
)

// NgrokTunnel exposes the server through an ngrok HTTPS endpoint.
// With a Domain set it binds that fixed domain; otherwise ngrok
// assigns a random one.
type NgrokTunnel struct {
	authToken string
	domain    string
	listener  net.Listener
	url       string
}

// NewNgrok creates an ngrok tunnel with the given auth token and
// optional fixed domain.
func NewNgrok(authToken, domain string) *NgrokTunnel {
	return &NgrokTunnel{
		authToken: authToken,
		domain:    domain,
	}
}

// Start opens the tunnel and returns its public URL. The localAddr is
// informational only; ngrok provides its own listener, which the HTTP
// server serves on instead of a local socket.
func (n *NgrokTunnel) Start(ctx context.Context, localAddr string) (string, error) {
	if n.authToken == "" {
		return "", fmt.Errorf("ngrok auth token is required (set tunnel.authtoken in config or BEACON_NGROK_AUTHTOKEN env var)")
	}

	slog.Info("starting ngrok tunnel", "local_addr", localAddr, "domain", n.domain)

	var tunnelConfig ngrokconfig.Tunnel
	if n.domain != "" {
		tunnelConfig = ngrokconfig.HTTPEndpoint(ngrokconfig.WithDomain(n.domain))
	} else {
		tunnelConfig = ngrokconfig.HTTPEndpoint()
	}

	listener, err := ngroklib.Listen(
		ctx,
		tunnelConfig,
		ngroklib.WithAuthtoken(n.authToken),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create ngrok tunnel: %w", err)
	}

	n.listener = listener

	addr := listener.Addr().String()
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		n.url = "https://" + addr
	} else {
		n.url = addr
	}

	slog.Info("ngrok tunnel established", "public_url", n.url)

	return n.url, nil
}

// Close closes the tunnel. Safe on an unstarted tunnel.
func (n *NgrokTunnel) Close() error {
	if n.listener == nil {
		return nil
	}

	slog.Info("closing ngrok tunnel", "public_url", n.url)

	if err := n.listener.Close(); err != nil {
		return fmt.Errorf("failed to close ngrok tunnel: %w", err)
	}

	n.listener = nil
	n.url = ""

	return nil
}

// Listener returns the tunnel's listener for the HTTP server to serve on.
func (n *NgrokTunnel) Listener() net.Listener {
	return n.listener
}
