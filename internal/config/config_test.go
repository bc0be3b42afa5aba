package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMainConfigDefaultsWhenDefaultPathMissing(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadMainConfig(DefaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "./data", cfg.Store.Path)
	assert.Equal(t, "./exports", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ",", cfg.CSV.Delimiter)
}

func TestLoadMainConfigMissingExplicitPath(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMainConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	yml := `
store:
  backend: sqlite
  path: ./ledger.db
log_level: debug
archive_by_date: true
csv:
  delimiter: ";"
mappings:
  work:
    worker: ["이름"]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))
	t.Setenv("LEDGER_OUTPUT_DIR", "/tmp/ledger-out")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "./ledger.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ";", cfg.CSV.Delimiter)
	assert.Equal(t, "/tmp/ledger-out", cfg.OutputDir)
	assert.True(t, cfg.ArchiveByDate)
	assert.Equal(t, []string{"이름"}, cfg.Mappings.Work["worker"])
}

func TestLoadMainConfigRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: mongo\n"), 0644))

	_, err := LoadMainConfig(path)
	assert.Error(t, err)
}

func TestAdminConfig(t *testing.T) {
	cfg := AdminConfig{SupabaseURL: " https://x.supabase.co/ ", SupabaseKey: "secret-key"}.Normalize()
	assert.Equal(t, "https://x.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, DefaultTaxRate, cfg.TaxRate)
	assert.True(t, cfg.RemoteConfigured())
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "******-key", cfg.MaskedKey())

	assert.Error(t, AdminConfig{SupabaseURL: "https://x.supabase.co", TaxRate: 3.3}.Validate())
	assert.Error(t, AdminConfig{TaxRate: 140}.Validate())
	assert.Error(t, AdminConfig{SupabaseURL: "not a url", SupabaseKey: "k"}.Validate())
	assert.False(t, AdminConfig{}.RemoteConfigured())
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logg, err := newLogger("info", "json", &buf)
	require.NoError(t, err)

	LogError(logg, "console", "ImportWork", "persisting records", map[string]int{"count": 2}, assert.AnError)
	out := buf.String()
	assert.Contains(t, out, `"module":"console"`)
	assert.Contains(t, out, `"funcName":"ImportWork"`)
	assert.Contains(t, out, `"count":2`)
}
