package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/lookup"
	"github.com/dmitrijs2005/cardkeeper/internal/repositories/repomanager"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T, args ...string) {
	t.Helper()

	origArgs := os.Args
	origDotenv := dotenvFile
	t.Cleanup(func() {
		os.Args = origArgs
		dotenvFile = origDotenv
	})
	os.Args = append([]string{"cardkeeper"}, args...)
	dotenvFile = filepath.Join(t.TempDir(), ".env")

	for _, k := range []string{
		"CARDKEEPER_API_URL", "CARDKEEPER_API_TIMEOUT", "CARDKEEPER_BACKEND", "CARDS_DB",
		"DATABASE_URL", "SUPABASE_URL", "SUPABASE_KEY", "LOG_BACKEND",
		"POKEMON_TCG_API_ENABLED", "POKEMON_TCG_API_BASE_URL", "POKEMON_TCG_API_KEY",
		"S3_REGION", "S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8000", c.APIURL)
	assert.Equal(t, 10*time.Second, c.APITimeout)
	assert.Equal(t, "auto", c.Backend)
	assert.Equal(t, "cards.db", c.SQLitePath)
	assert.Equal(t, "logrus", c.LogBackend)
	assert.True(t, c.LookupEnabled)
	assert.Equal(t, lookup.DefaultBaseURL, c.LookupBaseURL)
}

func TestLoadConfig_OnlyDefaults(t *testing.T) {
	isolate(t, "list", "-f")

	var want Config
	want.LoadDefaults()
	assert.Empty(t, cmp.Diff(&want, LoadConfig()))
}

func TestLoadConfig_Layers(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "cli.json")
	data, err := json.Marshal(map[string]any{
		"backend":        "postgres",
		"database_dsn":   "postgres://json",
		"api_timeout":    "3s",
		"lookup_enabled": false,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(jsonPath, data, 0o600))

	isolate(t, "-c", jsonPath, "add", "Pikachu", "--set", "Base Set", "-d", "postgres://flag", "-db", "x.db")
	t.Setenv("SUPABASE_KEY", "env-key")
	t.Setenv("DATABASE_URL", "postgres://env")

	c := LoadConfig()

	assert.Equal(t, "postgres", c.Backend)
	assert.Equal(t, "postgres://flag", c.DatabaseDSN)
	assert.Equal(t, "x.db", c.SQLitePath)
	assert.Equal(t, "env-key", c.SupabaseKey)
	assert.Equal(t, 3*time.Second, c.APITimeout)
	assert.False(t, c.LookupEnabled)
}

func TestParseFlags_BadValuePanics(t *testing.T) {
	isolate(t, "-p=maybe")
	assert.Panics(t, func() { parseFlags(&Config{}) })
}

func TestParseJson_Errors(t *testing.T) {
	isolate(t, "-config", filepath.Join(t.TempDir(), "missing.json"))
	assert.Panics(t, func() { parseJson(&Config{}) })

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"api_timeout": true}`), 0o600))
	os.Args = []string{"cardkeeper", "-c", bad}
	assert.Panics(t, func() { parseJson(&Config{}) })
}

func TestStorageSettings(t *testing.T) {
	c := &Config{Backend: "supabase", SupabaseURL: "https://x.supabase.co", SupabaseKey: "k"}
	s, err := c.StorageSettings()
	require.NoError(t, err)
	assert.Equal(t, repomanager.KindSupabase, s.Backend)
	assert.Equal(t, "k", s.SupabaseKey)

	c.Backend = "oracle"
	_, err = c.StorageSettings()
	assert.Error(t, err)
}

func TestBackupAndLookup(t *testing.T) {
	c := &Config{S3Bucket: "b", S3Region: "r", LookupAPIKey: "key"}
	assert.True(t, c.Backup().Enabled())
	assert.Equal(t, "r", c.Backup().Region)
	assert.Equal(t, "key", c.Lookup().APIKey)
	assert.False(t, (&Config{}).Backup().Enabled())
}
