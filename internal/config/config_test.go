package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, validator.New().Struct(Default()))
}

func TestDefault_Values(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10, cfg.Log.MaxItems)
	assert.Equal(t, "default", cfg.Log.Order)
	assert.Equal(t, "system", cfg.Repository.IdentityScope)
	assert.True(t, cfg.Watcher.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Watcher.Debounce)
}

func TestValidation(t *testing.T) {
	validate := validator.New()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max items", func(c *Config) { c.Log.MaxItems = 0 }},
		{"too many items", func(c *Config) { c.Log.MaxItems = 1001 }},
		{"unknown order", func(c *Config) { c.Log.Order = "topo" }},
		{"unknown scope", func(c *Config) { c.Repository.IdentityScope = "user" }},
		{"no data dir", func(c *Config) { c.Storage.DataDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, validate.Struct(cfg))
		})
	}

	cfg := Default()
	cfg.Storage.DataDir = ""
	cfg.Storage.InMemory = true
	assert.NoError(t, validate.Struct(cfg))
}

func TestNew_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
repository:
  root: /work/project
  identity_scope: local
log:
  max_items: 25
  order: committer_time
`), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := New(validator.New())
	require.NoError(t, err)

	assert.Equal(t, "/work/project", cfg.Repository.Root)
	assert.Equal(t, "local", cfg.Repository.IdentityScope)
	assert.Equal(t, 25, cfg.Log.MaxItems)
	assert.Equal(t, "committer_time", cfg.Log.Order)
	assert.Equal(t, "./data", cfg.Storage.DataDir)
}
