package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "resolvit.db", cfg.Store.Path)
	assert.Equal(t, "google", cfg.Search.Provider)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.Equal(t, []string{
		"fast-precision", "deep-coverage", "aggressive-probabilistic", "exhaustive",
	}, cfg.Batch.Waves)
	assert.Equal(t, "results.csv", cfg.Output.Path)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.InDelta(t, 40.0, cfg.Score.PhoneWeight, 0.001)
	assert.InDelta(t, 45.0, cfg.Decide.OKScore, 0.001)
	assert.Equal(t, 4, cfg.Decide.ShortNameLen)
	assert.False(t, cfg.Verifier.Enabled)

	assert.Contains(t, cfg.Domains.Directories, "paginegialle.it")
	assert.Contains(t, cfg.Domains.Social, "facebook.com")
	assert.Contains(t, cfg.Domains.Marketplaces, "amazon.it")
	assert.NotEmpty(t, cfg.Domains.ParkedIndicators)
}

func TestLoad_ConfigFileOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("config.yaml", []byte(`
store:
  driver: postgres
  database_url: postgres://localhost/resolvit
batch:
  concurrency: 16
  waves:
    - fast-precision
output:
  format: jsonl
`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/resolvit", cfg.Store.DatabaseURL)
	assert.Equal(t, 16, cfg.Batch.Concurrency)
	assert.Equal(t, []string{"fast-precision"}, cfg.Batch.Waves)
	assert.Equal(t, "jsonl", cfg.Output.Format)
	// Untouched sections keep defaults.
	assert.Equal(t, "google", cfg.Search.Provider)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RESOLVIT_SEARCH_API_KEY", "env-key")
	t.Setenv("RESOLVIT_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Search.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DomainListFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	listPath := filepath.Join(dir, "domains.yaml")
	require.NoError(t, os.WriteFile(listPath, []byte(`
directories:
  - custom-directory.it
social:
  - custom-social.it
`), 0o644))
	require.NoError(t, os.WriteFile("config.yaml", []byte("domains:\n  list_file: "+listPath+"\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"custom-directory.it"}, cfg.Domains.Directories)
	assert.Equal(t, []string{"custom-social.it"}, cfg.Domains.Social)
	// Sections absent from the list file keep the inline defaults.
	assert.Contains(t, cfg.Domains.Marketplaces, "amazon.it")
	assert.NotEmpty(t, cfg.Domains.ParkedIndicators)
}

func TestLoad_MissingDomainListFile(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("config.yaml", []byte("domains:\n  list_file: does-not-exist.yaml\n"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nonsense"}))
}
