package config

import (
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/backup"
	"github.com/dmitrijs2005/cardkeeper/internal/client/client"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/lookup"
	"github.com/dmitrijs2005/cardkeeper/internal/repositories/repomanager"
)

// Config holds runtime settings for the cardkeeper CLI.
//
// Fields:
//   - APIURL / APITimeout: the API server used by signup and signin.
//   - Backend, SQLitePath, DatabaseDSN, SupabaseURL, SupabaseKey: storage.
//   - Lookup*: card name lookup.
//   - S3*: backup bucket.
type Config struct {
	APIURL        string
	APITimeout    time.Duration
	Backend       string
	SQLitePath    string
	DatabaseDSN   string
	SupabaseURL   string
	SupabaseKey   string
	LogBackend    string
	LookupEnabled bool
	LookupBaseURL string
	LookupAPIKey  string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3Bucket      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://127.0.0.1:8000"
	c.APITimeout = client.DefaultTimeout
	c.Backend = string(repomanager.KindAuto)
	c.SQLitePath = repomanager.DefaultSQLitePath
	c.LogBackend = logging.BackendLogrus
	c.LookupEnabled = true
	c.LookupBaseURL = lookup.DefaultBaseURL
	c.S3Region = "us-east-1"
}

// LoadConfig constructs a Config, applies defaults, then overlays the
// environment, JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

func (c *Config) StorageSettings() (repomanager.Settings, error) {
	kind, err := repomanager.ParseKind(c.Backend)
	if err != nil {
		return repomanager.Settings{}, err
	}
	return repomanager.Settings{
		Backend:     kind,
		SQLitePath:  c.SQLitePath,
		DatabaseDSN: c.DatabaseDSN,
		SupabaseURL: c.SupabaseURL,
		SupabaseKey: c.SupabaseKey,
	}, nil
}

func (c *Config) Lookup() lookup.Config {
	return lookup.Config{
		Enabled: c.LookupEnabled,
		BaseURL: c.LookupBaseURL,
		APIKey:  c.LookupAPIKey,
		Timeout: lookup.DefaultTimeout,
	}
}

func (c *Config) Backup() backup.Config {
	return backup.Config{
		Region:    c.S3Region,
		Endpoint:  c.S3Endpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Bucket:    c.S3Bucket,
	}
}
