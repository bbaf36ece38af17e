package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemosyne/mnemosyne/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 50, cfg.Session.MaxItems, "default session max items")
	assert.Equal(t, 0.4, cfg.Router.Weights.Relevance, "default relevance weight")
	assert.True(t, cfg.Security.DevMode, "dev mode defaults on")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	os.Setenv("MNEMO_SESSION_MAX_ITEMS", "5")
	defer os.Unsetenv("MNEMO_SESSION_MAX_ITEMS")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Session.MaxItems, "env override should win over default")
}

func TestLoadConfigEnvOverride_GlobalBacking(t *testing.T) {
	os.Setenv("MNEMO_GLOBAL_BACKING", "sqlite")
	os.Setenv("MNEMO_GLOBAL_BACKING_DSN", "/tmp/mnemosyne-global.db")
	defer os.Unsetenv("MNEMO_GLOBAL_BACKING")
	defer os.Unsetenv("MNEMO_GLOBAL_BACKING_DSN")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.GlobalBacking.Backend)
	assert.Equal(t, "/tmp/mnemosyne-global.db", cfg.GlobalBacking.DSN)
}
