package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// searchPaths returns the ordered list of config file locations to try.
func searchPaths() []string {
	paths := []string{
		"/etc/beacon/beacon.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "beacon", "beacon.yaml"))
	}

	paths = append(paths, "beacon.yaml")

	if envPath := os.Getenv("BEACON_CONFIG"); envPath != "" {
		paths = append(paths, envPath)
	}

	return paths
}

// Load reads configuration from YAML files and environment variables.
// Files are loaded in order (each overrides the previous):
// /etc/beacon/beacon.yaml < ~/.config/beacon/beacon.yaml < ./beacon.yaml < $BEACON_CONFIG
func Load() (*Config, error) {
	cfg := Defaults()

	for _, path := range searchPaths() {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := Defaults()

	if err := loadFile(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables have higher priority than YAML config values.
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("BEACON_NGROK_AUTHTOKEN"); token != "" {
		cfg.Tunnel.AuthToken = token
	}
	if token := os.Getenv("BEACON_AUTH_TOKEN"); token != "" {
		cfg.Server.AuthToken = token
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config search paths
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	slog.Debug("loading config file", "path", path)

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Events.Capacity < 1 {
		return fmt.Errorf("events.capacity must be at least 1, got %d", cfg.Events.Capacity)
	}

	if cfg.Events.MaxWait <= 0 {
		return fmt.Errorf("events.max_wait must be positive, got %s", cfg.Events.MaxWait)
	}

	if cfg.Events.DefaultWait > cfg.Events.MaxWait {
		return fmt.Errorf("events.default_wait %s exceeds events.max_wait %s",
			cfg.Events.DefaultWait, cfg.Events.MaxWait)
	}

	if cfg.Events.Heartbeat <= 0 {
		return fmt.Errorf("events.heartbeat must be positive, got %s", cfg.Events.Heartbeat)
	}

	switch cfg.Log.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Log.Format)
	}

	if cfg.Tunnel.Enabled && cfg.Tunnel.AuthToken == "" {
		return fmt.Errorf("tunnel.authtoken is required when the tunnel is enabled")
	}

	if cfg.Store.Path != ":memory:" {
		cfg.Store.Path = ExpandHome(cfg.Store.Path)
	}

	return nil
}
