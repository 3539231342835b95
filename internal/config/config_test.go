package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Store.Driver)
	assert.Equal(t, "data/papers.csv", cfg.Store.CSV.Papers)
	assert.Equal(t, "data/c_objects.csv", cfg.Store.CSV.Objects)
	assert.Equal(t, "data/c_morphisms.csv", cfg.Store.CSV.Morphisms)
	assert.Equal(t, "data/c_evidence.csv", cfg.Store.CSV.Evidence)
	assert.Equal(t, "data/concart.db", cfg.Store.DSN)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.Equal(t, 300, cfg.Anthropic.AnalyzeTimeoutSecs)
	assert.Equal(t, "data/paper_database.csv", cfg.Resolver.Input)
	assert.Equal(t, "papers_with_urls.csv", cfg.Resolver.Output)
	assert.Equal(t, 1500, cfg.Resolver.PacingMS)
	assert.Equal(t, 5, cfg.Resolver.MaxAttempts)
	assert.Equal(t, 2000, cfg.Ingest.PacingMS)
	assert.Equal(t, 5, cfg.Ingest.MaxAttempts)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  dsn: /var/lib/concart/kb.db
resolver:
  pacing_ms: 250
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/var/lib/concart/kb.db", cfg.Store.DSN)
	assert.Equal(t, 250, cfg.Resolver.PacingMS)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2000, cfg.Ingest.PacingMS, "unset sections keep their defaults")
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("CONCART_STORE_DRIVER", "postgres")
	t.Setenv("CONCART_ANTHROPIC_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "sk-test", cfg.Anthropic.Key)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
