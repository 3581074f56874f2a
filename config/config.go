/*
Package config loads server configuration.

PURPOSE:
  Configuration comes from an optional YAML file plus command-line flag
  overrides in cmd/server. Everything has a working default so the server
  runs with no file at all.

EXAMPLE FILE:
  port: 8080
  store: memory            # memory | sqlite
  sqlite_dsn: ":memory:"
  latency: default         # default | none
  log_level: info          # info | debug
  allowed_origins:
    - http://localhost:5173
*/
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pulse/crm-engine/crm"
)

// Config is the full server configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int `yaml:"port"`

	// Store selects the backend: "memory" or "sqlite".
	Store string `yaml:"store"`

	// SQLiteDSN is the database location when Store is "sqlite".
	// ":memory:" keeps all state in process memory.
	SQLiteDSN string `yaml:"sqlite_dsn"`

	// Latency selects the simulated store delay: "default" or "none".
	Latency string `yaml:"latency"`

	// LogLevel is "info" or "debug".
	LogLevel string `yaml:"log_level"`

	// AllowedOrigins is the CORS allowlist for the SPA dev server.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Port:      8080,
		Store:     "memory",
		SQLiteDSN: ":memory:",
		Latency:   "default",
		LogLevel:  "info",
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:8080",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("malformed config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Store {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store)
	}
	switch c.Latency {
	case "default", "none":
	default:
		return fmt.Errorf("unknown latency profile %q", c.Latency)
	}
	return nil
}

// LatencyProfile resolves the configured latency name.
func (c Config) LatencyProfile() crm.Latency {
	if c.Latency == "none" {
		return crm.NoLatency()
	}
	return crm.DefaultLatency()
}
