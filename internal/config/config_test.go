package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treefix50/primeshelf/internal/shelf"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, shelf.DefaultInitialRows, cfg.InitialRows)
	assert.Equal(t, shelf.DefaultLoadRows, cfg.LoadRows)
	assert.Equal(t, shelf.DefaultCacheCapacity, cfg.CacheCapacity)
	assert.Zero(t, cfg.FetchTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, shelf.AccessAVOD, cfg.Access())
	assert.True(t, cfg.Display().ShelfTitles)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PRIMESHELF_INITIAL_ROWS", "3")
	t.Setenv("PRIMESHELF_FETCH_TIMEOUT", "2s")
	t.Setenv("PRIMESHELF_ACCESS_MODEL", "svod")
	t.Setenv("PRIMESHELF_SHELF_TITLES", "false")
	t.Setenv("PRIMESHELF_REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.InitialRows)
	assert.Equal(t, 2*time.Second, cfg.FetchTimeout)
	assert.Equal(t, shelf.AccessSVOD, cfg.Access())
	assert.False(t, cfg.Display().ShelfTitles)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("PRIMESHELF_LOAD_ROWS", "many")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"negative rows":  func(c *Config) { c.LoadRows = -1 },
		"negative cache": func(c *Config) { c.CacheCapacity = -5 },
		"access model":   func(c *Config) { c.AccessModel = "PPV" },
		"log level":      func(c *Config) { c.LogLevel = "loud" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{LogLevel: "warn"}
	logger := cfg.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "row", "pla")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "row=pla")
}
