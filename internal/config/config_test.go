package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PLATEWISE_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultConfidenceBoost, cfg.ConfidenceBoost)
	assert.Equal(t, DefaultConfidenceCeiling, cfg.ConfidenceCeiling)
	assert.Equal(t, 10*time.Second, cfg.SourceTimeout())
	assert.Equal(t, 7*24*time.Hour, cfg.NutritionCacheTTL())
	assert.Contains(t, cfg.DBPath, "platewise.sqlite3")
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PLATEWISE_DATA_DIR", dir)

	content := `
[server]
listen_addr = ":9999"

[nutrition]
source_timeout_seconds = 3
cache_ttl_days = 1

[vision]
top_k = 5

[[vision.engines]]
id = "local"
url = "http://127.0.0.1:11434"
weight = 0.6
resize = 224
enabled = true

[[vision.engines]]
id = "disabled"
url = "http://127.0.0.1:11435"
weight = 0.4
enabled = false

[learning]
confidence_boost = 1.25
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 3*time.Second, cfg.SourceTimeout())
	assert.Equal(t, 24*time.Hour, cfg.NutritionCacheTTL())
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 1.25, cfg.ConfidenceBoost)

	// Disabled engines never enter the roster.
	require.Len(t, cfg.InferenceEndpoints, 1)
	assert.Equal(t, "local", cfg.InferenceEndpoints[0].ID)
	assert.Equal(t, 0.6, cfg.InferenceEndpoints[0].Weight)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PLATEWISE_DATA_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("[server]\nlisten_addr = \":9999\"\n"), 0644))

	t.Setenv("PLATEWISE_LISTEN_ADDR", ":7070")
	t.Setenv("PLATEWISE_SOURCE_TIMEOUT", "2")
	t.Setenv("USDA_API_KEY", "key-from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, 2*time.Second, cfg.SourceTimeout())
	assert.Equal(t, "key-from-env", cfg.USDAAPIKey)
}

func TestLoadRejectsMalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PLATEWISE_DATA_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid toml"), 0644))

	_, err := Load()
	assert.Error(t, err)
}
