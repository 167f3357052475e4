package config

import "time"

// Config is the root configuration for Beacon.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Events EventsConfig `yaml:"events"`
	Store  StoreConfig  `yaml:"store"`
	Tunnel TunnelConfig `yaml:"tunnel"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	PublicURL string `yaml:"public_url"`
	AuthToken string `yaml:"auth_token"`
}

// EventsConfig tunes the event bus: the replay window, streaming
// buffers, and long-poll bounds.
type EventsConfig struct {
	Capacity         int           `yaml:"capacity"`
	Heartbeat        time.Duration `yaml:"heartbeat"`
	SubscriberBuffer int           `yaml:"subscriber_buffer"`
	ConnectionTTL    time.Duration `yaml:"connection_ttl"`
	DefaultWait      time.Duration `yaml:"default_wait"`
	MaxWait          time.Duration `yaml:"max_wait"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type TunnelConfig struct {
	Enabled   bool   `yaml:"enabled"`
	AuthToken string `yaml:"authtoken"`
	Domain    string `yaml:"domain"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
	File   string `yaml:"file"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8420,
		},
		Events: EventsConfig{
			Capacity:         1024,
			Heartbeat:        15 * time.Second,
			SubscriberBuffer: 64,
			ConnectionTTL:    5 * time.Minute,
			DefaultWait:      30 * time.Second,
			MaxWait:          300 * time.Second,
		},
		Store: StoreConfig{
			Path: "~/.local/share/beacon/beacon.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
