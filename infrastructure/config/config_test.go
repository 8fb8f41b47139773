package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigAppliesEnvOverrides(t *testing.T) {
	t.Setenv("TRIPGRAPH_CONFIG", "")
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RELAY_MAX_CONNECTIONS", "4")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Relay.MaxConnections)
}

func TestLoadConfigOverlaysYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: production\nrelay:\n  maxConnections: 32\n"), 0o600))
	t.Setenv("TRIPGRAPH_CONFIG", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 32, cfg.Relay.MaxConnections)
	// Untouched fields keep their defaults
	assert.Equal(t, ":8080", cfg.ServerAddress)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("TRIPGRAPH_CONFIG", "")
	t.Setenv("LOG_LEVEL", "shouting")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serverAddress: \":7070\"\n"), 0o600))
	t.Setenv("TRIPGRAPH_CONFIG", path)
	t.Setenv("SERVER_ADDRESS", ":6060")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.ServerAddress)
}
