package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/beacon/internal/config"
	"github.com/btouchard/beacon/internal/event"
	beaconmcp "github.com/btouchard/beacon/internal/mcp"
	authmw "github.com/btouchard/beacon/internal/mcp/middleware"
	"github.com/btouchard/beacon/internal/notes"
	"github.com/btouchard/beacon/internal/notify"
	"github.com/btouchard/beacon/internal/store"
	"github.com/btouchard/beacon/internal/tasks"
	"github.com/btouchard/beacon/internal/tunnel"
	"github.com/btouchard/beacon/internal/web"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "version":
		fmt.Printf("beacon %s\n", version)
	case "check":
		cmdCheck(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: beacon <command> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve     Start the Beacon server\n")
	fmt.Fprintf(os.Stderr, "  check     Validate configuration\n")
	fmt.Fprintf(os.Stderr, "  version   Print version\n")
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args) // ExitOnError handles errors

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	slog.Info("starting beacon",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args) // ExitOnError handles errors

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	db, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store error: %v\n", err)
		os.Exit(1)
	}
	_ = db.Close()

	fmt.Println("configuration is valid")
	fmt.Printf("  server:          %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  store:           %s\n", cfg.Store.Path)
	fmt.Printf("  event capacity:  %d\n", cfg.Events.Capacity)
	fmt.Printf("  max wait:        %s\n", cfg.Events.MaxWait)
	fmt.Printf("  tunnel:          %v\n", cfg.Tunnel.Enabled)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			slog.Warn("failed to open log file, using stdout only", "path", cfg.Log.File, "error", err)
		} else {
			out = io.MultiWriter(os.Stdout, f)
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func run(ctx context.Context, cfg *config.Config) error {
	// --- SQLite Store ---
	db, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = db.Close() }()

	slog.Info("store opened", "path", cfg.Store.Path)

	// --- Domain managers ---
	noteManager := notes.NewManager(db)
	taskManager := tasks.NewManager(db)

	// --- Event bus ---
	bus := event.New(event.Options{
		Capacity:         cfg.Events.Capacity,
		SubscriberBuffer: cfg.Events.SubscriberBuffer,
		ConnectionTTL:    cfg.Events.ConnectionTTL,
		MaxWait:          cfg.Events.MaxWait,
	})
	bus.Start()
	defer bus.Stop()

	emitter := notify.NewEmitter(bus)
	startedAt := time.Now()

	// --- MCP Server ---
	mcpServer := beaconmcp.NewServer(&beaconmcp.Deps{
		Bus:         bus,
		Notes:       noteManager,
		Tasks:       taskManager,
		Emitter:     emitter,
		Snapshots:   &beaconmcp.Snapshots{Notes: noteManager, Tasks: taskManager},
		DefaultWait: cfg.Events.DefaultWait,
		StartedAt:   startedAt,
		Version:     version,
	})
	mcpHTTP := server.NewStreamableHTTPServer(mcpServer)

	// --- Notify bridge (bus → MCP clients) ---
	bridge := notify.NewBridge(bus, notify.NewMCPNotifier(mcpServer, 0))
	if err := bridge.Start(); err != nil {
		return fmt.Errorf("starting notify bridge: %w", err)
	}
	defer bridge.Stop()

	// --- HTTP Router ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Last-Event-ID"},
	}))
	r.Use(authmw.SecurityHeaders)

	// MCP endpoint, Bearer-gated when a token is configured. The web
	// and event endpoints stay open inside the trust boundary.
	r.Group(func(r chi.Router) {
		r.Use(authmw.BearerAuth(cfg.Server.AuthToken))
		r.Handle("/mcp", mcpHTTP)
	})

	webHandlers := &web.Handlers{
		Bus:       bus,
		Notes:     noteManager,
		Emitter:   emitter,
		Heartbeat: cfg.Events.Heartbeat,
		StartedAt: startedAt,
		Version:   version,
	}
	webHandlers.Register(r)

	// --- HTTP Server ---
	// WriteTimeout stays 0: long-polls and SSE streams hold the
	// response open far past any sane fixed budget.
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.Tunnel.Enabled {
			tun := tunnel.NewNgrok(cfg.Tunnel.AuthToken, cfg.Tunnel.Domain)
			publicURL, err := tun.Start(ctx, addr)
			if err != nil {
				errCh <- fmt.Errorf("starting tunnel: %w", err)
				close(errCh)
				return
			}
			defer func() { _ = tun.Close() }()

			slog.Info("beacon is ready", "addr", addr, "public_url", publicURL)
			if err := srv.Serve(tun.Listener()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		} else {
			slog.Info("beacon is ready", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	// Stopping the bus first resolves parked long-polls and closes
	// SSE subscriptions, so their handlers return and Shutdown can
	// drain the connections instead of timing out on them.
	bridge.Stop()
	bus.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
