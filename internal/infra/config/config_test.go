package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "gemini-3-pro-image-preview", cfg.ImageGen.Model)
	assert.Equal(t, "local", cfg.Storage.Type)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
server:
  addr: ":9090"
limiter:
  max_concurrent: 1
  rate_per_second: 0.5
storage:
  type: s3
  s3:
    bucket: slides
`)
	require.NoError(t, os.WriteFile(path, body, 0o644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("S3_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 1, cfg.Limiter.MaxConcurrent)
	assert.InDelta(t, 0.5, cfg.Limiter.RatePerSecond, 0.0001)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "slides", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.UseSSL)
	assert.Equal(t, "env-key", cfg.Credential.APIKey)
	// untouched sections keep their defaults
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	assert.Error(t, err)
}
