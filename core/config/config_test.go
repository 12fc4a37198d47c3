package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "data/portal.db", cfg.Store.Path)
	assert.False(t, cfg.Storage.Enabled)

	assert.Equal(t, "192.168.99.201", cfg.Reader.IP)
	assert.Equal(t, 8888, cfg.Reader.Port)
	assert.Equal(t, 20, cfg.Reader.Power)
	assert.Equal(t, "1,2,3,4", cfg.Reader.Antennas)
	assert.Equal(t, "chainway", cfg.Reader.Driver)
	assert.Equal(t, 100, cfg.Reader.BufferSize)
	assert.Equal(t, 30, cfg.Reader.KeepAliveSeconds)
	assert.Equal(t, 10, cfg.Reader.ConnectionCheckSeconds)
	assert.Equal(t, 60, cfg.Reader.MaxInactivitySeconds)
	assert.Equal(t, 20, cfg.Reader.ReadHealthSeconds)
	assert.Equal(t, 45, cfg.Reader.ReadStallSeconds)
	assert.Equal(t, 40, cfg.Reader.AutoRestartSeconds)
	assert.Equal(t, 5, cfg.Reader.MaxReconnectAttempts)
	assert.Equal(t, 3, cfg.Reader.MaxRestartAttempts)

	assert.Equal(t, 1000, cfg.Inventory.ChunkSize)
	assert.Equal(t, 50000, cfg.Inventory.MaxItems)
	assert.Equal(t, "uhf", cfg.Inventory.Marker)

	assert.Equal(t, 30, cfg.Match.CooldownSeconds)
	assert.Equal(t, 100, cfg.Match.RatePerSecond)
	assert.Equal(t, 100, cfg.Match.FlushIntervalMillis)
	assert.Equal(t, 30, cfg.Match.MaxPerFlush)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("READER_IP", "10.0.0.42")
	t.Setenv("READER_POWER", "25")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("MATCH_COOLDOWN_SECONDS", "5")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.42", cfg.Reader.IP)
	assert.Equal(t, 25, cfg.Reader.Power)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Match.CooldownSeconds)
}
