package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulse/crm-engine/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, ":memory:", cfg.SQLiteDSN)
	assert.Equal(t, "default", cfg.Latency)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
port: 9090
store: sqlite
sqlite_dsn: crm.db
latency: none
log_level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, "crm.db", cfg.SQLiteDSN)
	assert.Equal(t, "none", cfg.Latency)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched keys keep their defaults.
	assert.NotEmpty(t, cfg.AllowedOrigins)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "store: redis\n")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownLatencyProfile(t *testing.T) {
	path := writeConfig(t, "latency: extreme\n")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLatencyProfile(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 300*time.Millisecond, cfg.LatencyProfile().GetAll)

	cfg.Latency = "none"
	assert.Equal(t, time.Duration(0), cfg.LatencyProfile().GetAll)
}
