package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FRONTSEAT_ADDR", "")
	t.Setenv("FRONTSEAT_DB", "")
	t.Setenv("FRONTSEAT_LOG_LEVEL", "")

	cfg := Load()
	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, "frontseat.db", cfg.StorePath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FRONTSEAT_ADDR", ":8080")
	t.Setenv("FRONTSEAT_DB", "/tmp/stage.db")
	t.Setenv("FRONTSEAT_LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "/tmp/stage.db", cfg.StorePath)
	assert.Equal(t, "debug", cfg.LogLevel)
}
