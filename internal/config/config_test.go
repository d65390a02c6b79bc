package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	path := writeConfig(t, "server:\n  host: 127.0.0.1\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	// base_url has no default; an unconfigured backend is valid.
	assert.Empty(t, cfg.Backend.BaseURL)
	assert.Equal(t, "data/dashboard.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_FileValues(t *testing.T) {
	viper.Reset()
	path := writeConfig(t, `
server:
  port: 9090
backend:
  base_url: http://localhost:4000
  timeout: 10s
logger:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://localhost:4000", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	viper.Reset()
	t.Setenv("PO_API_BASE_URL", "http://env-backend:4000")
	path := writeConfig(t, "backend:\n  base_url: http://file-backend:4000\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env-backend:4000", cfg.Backend.BaseURL)
}

func TestLoad_InvalidPort(t *testing.T) {
	viper.Reset()
	path := writeConfig(t, "server:\n  port: 99999\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestLoad_MissingFile(t *testing.T) {
	viper.Reset()
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
