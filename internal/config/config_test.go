package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.LogFile)
	assert.Equal(t, 16*time.Millisecond, cfg.FrameInterval)
	assert.Equal(t, "#ffffff", cfg.DefaultColor)
	assert.Equal(t, "https://", cfg.Host.BaseURL)
	assert.Equal(t, "markerdui", cfg.Host.Resource)
	assert.Equal(t, 5*time.Second, cfg.Host.Timeout)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := `{
		"logLevel": "debug",
		"frameInterval": "33ms",
		"marker": { "defaultColor": "#ff8800" },
		"host": { "baseUrl": "http://127.0.0.1:30120", "resource": "waypoints", "timeout": "2s" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(file), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 33*time.Millisecond, cfg.FrameInterval)
	assert.Equal(t, "#ff8800", cfg.DefaultColor)
	assert.Equal(t, "http://127.0.0.1:30120", cfg.Host.BaseURL)
	assert.Equal(t, "waypoints", cfg.Host.Resource)
	assert.Equal(t, 2*time.Second, cfg.Host.Timeout)
	assert.Equal(t, ":8080", cfg.Addr, "unset keys keep their defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{"host":{"resource":"file"}}`), 0644))
	t.Setenv("MARKERDUI_HOST_RESOURCE", "env")
	t.Setenv("MARKERDUI_ADDR", ":9000")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "env", cfg.Host.Resource)
	assert.Equal(t, ":9000", cfg.Addr)
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{invalid`), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_RejectsNonPositiveFrameInterval(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{"frameInterval":"0s"}`), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}
