package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 7*24*time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, BackendSQLite, cfg.Client.SessionBackend)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromMergesProjectOverGlobal(t *testing.T) {
	global := writeConfig(t, t.TempDir(), `
server:
  addr: ":9000"
  token_ttl: 1h
client:
  api_url: http://global.example
log:
  level: debug
`)
	project := writeConfig(t, t.TempDir(), `
client:
  api_url: http://project.example
  session_backend: memory
`)

	cfg, err := LoadFrom(global, project)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, "http://project.example", cfg.Client.APIURL)
	assert.Equal(t, BackendMemory, cfg.Client.SessionBackend)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched values keep their defaults.
	assert.Equal(t, "data/taskflow.db", cfg.Server.DBPath)
}

func TestLoadFromSkipsMissingFiles(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Addr, cfg.Server.Addr)
}

func TestLoadFromRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "server: [unclosed")
	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestEnvironmentOverridesFiles(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
server:
  addr: ":9000"
client:
  session_backend: memory
`)
	t.Setenv("TASKFLOW_ADDR", ":7000")
	t.Setenv("DATABASE_URL", "postgres://localhost/taskflow")
	t.Setenv("TASKFLOW_SESSION_BACKEND", "redis")
	t.Setenv("TASKFLOW_TOKEN_TTL", "30m")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "postgres://localhost/taskflow", cfg.Server.DatabaseURL)
	assert.Equal(t, BackendRedis, cfg.Client.SessionBackend)
	assert.Equal(t, 30*time.Minute, cfg.Server.TokenTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"json logs", func(c *Config) { c.Log.Format = "json" }, false},
		{"unknown backend", func(c *Config) { c.Client.SessionBackend = "etcd" }, true},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
