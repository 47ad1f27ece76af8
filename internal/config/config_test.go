package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8000", cfg.ListenAddr)
	assert.Empty(t, cfg.WSListenAddr)
	assert.Equal(t, 10, cfg.MaxRetries)
	assert.Equal(t, "info", cfg.LogLevel)
}

// Load caches its result process-wide, so the single successful read is
// exercised in one test.
func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	data := "listen_addr: \":9000\"\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unset fields keep their defaults.
	assert.Equal(t, 10, cfg.MaxRetries)
	assert.Empty(t, cfg.WSListenAddr)
}
