package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 0.1, cfg.Epsilon)
	assert.Equal(t, 3, cfg.TopK)
	assert.True(t, cfg.BatchUpdate)
	assert.Equal(t, 384, cfg.EmbeddingDim)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MILES_ADDR", ":9999")
	t.Setenv("MILES_EPSILON", "0.25")
	t.Setenv("MILES_TOP_K", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 0.25, cfg.Epsilon)
	assert.Equal(t, 5, cfg.TopK)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":7070\"\nlog_level: debug\n"), 0o644))
	t.Setenv("MILES_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":7070\"\n"), 0o644))
	t.Setenv("MILES_CONFIG", path)
	t.Setenv("MILES_ADDR", ":6060")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.Addr)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("MILES_EPSILON", "1.5")
	_, err := Load()
	assert.Error(t, err)
}
