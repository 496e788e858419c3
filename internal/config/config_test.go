package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aprilwade/teslafanctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetArgs strips test-runner flags so Load only sees its own flag set.
func resetArgs(t *testing.T) {
	t.Helper()
	oldArgs := os.Args
	os.Args = []string{"teslafanctl"}
	t.Cleanup(func() { os.Args = oldArgs })
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "teslafanctl.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return configPath
}

func TestLoadDefaults(t *testing.T) {
	resetArgs(t)
	t.Setenv("TESLAFANCTL_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.Interval, "Expected default Interval 5.0")
	assert.Equal(t, -1, cfg.Override, "Expected Override disabled by default")
	assert.False(t, cfg.HasOverride())
	assert.Empty(t, cfg.Curve)
	assert.Nil(t, cfg.FanCurve)
	assert.False(t, cfg.Monitor)
	assert.False(t, cfg.Metrics)
	assert.NotEmpty(t, cfg.UUID)
}

func TestLoadFromFile(t *testing.T) {
	resetArgs(t)
	configPath := writeConfigFile(t, `
uuid = "GPU-11111111-2222-3333-4444-555555555555"
interval = 2.5
curve = "0.2:0,0.5:128,0.9:255"
monitor = true
metrics = true
database = "/tmp/metrics.db"
`)
	t.Setenv("TESLAFANCTL_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "GPU-11111111-2222-3333-4444-555555555555", cfg.UUID)
	assert.Equal(t, 2.5, cfg.Interval)
	assert.True(t, cfg.Monitor)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, "/tmp/metrics.db", cfg.Database)
	require.NotNil(t, cfg.FanCurve)
	assert.Len(t, cfg.FanCurve.Points(), 3)
}

func TestLoadOverride(t *testing.T) {
	resetArgs(t)
	configPath := writeConfigFile(t, `
override = 200
`)
	t.Setenv("TESLAFANCTL_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.HasOverride())
	assert.Equal(t, 200, cfg.Override)
}

func TestInvalidCurveFailsLoad(t *testing.T) {
	resetArgs(t)
	configPath := writeConfigFile(t, `
curve = "0.3:0,0.6"
`)
	t.Setenv("TESLAFANCTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "':'")
}

func TestInvalidOverrideFailsLoad(t *testing.T) {
	resetArgs(t)
	configPath := writeConfigFile(t, `
override = 300
`)
	t.Setenv("TESLAFANCTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
}

func TestInvalidIntervalFailsLoad(t *testing.T) {
	resetArgs(t)
	configPath := writeConfigFile(t, `
interval = 0.0
`)
	t.Setenv("TESLAFANCTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
}

func TestInvalidFileFormatFailsLoad(t *testing.T) {
	resetArgs(t)
	configPath := writeConfigFile(t, `
This is not a valid TOML file
`)
	t.Setenv("TESLAFANCTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
}
