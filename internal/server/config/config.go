// Package config handles configuration for the API server: defaults, a
// dotenv file and the environment, a JSON overlay and command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/backup"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/lookup"
	"github.com/dmitrijs2005/cardkeeper/internal/repositories/repomanager"
)

// Config holds runtime settings for the cardkeeper API server.
//
// Fields:
//   - Addr: listen address of the HTTP server.
//   - Backend: storage backend name (auto, sqlite, postgres, supabase).
//   - SQLitePath / DatabaseDSN: local backends.
//   - SupabaseURL / SupabaseKey / JWTSecret: hosted backend and token verification.
//   - AllowedOrigins / RateLimit / RequestTimeout: HTTP middleware.
//   - Lookup*: card name lookup against the Pokemon TCG API.
//   - S3*: backup bucket.
type Config struct {
	Addr           string
	Backend        string
	SQLitePath     string
	DatabaseDSN    string
	SupabaseURL    string
	SupabaseKey    string
	JWTSecret      string
	AllowedOrigins []string
	RateLimit      int
	RequestTimeout time.Duration
	LogBackend     string
	LookupEnabled  bool
	LookupBaseURL  string
	LookupAPIKey   string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = "127.0.0.1:8000"
	c.Backend = string(repomanager.KindAuto)
	c.SQLitePath = repomanager.DefaultSQLitePath
	c.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	c.RateLimit = 100
	c.RequestTimeout = 60 * time.Second
	c.LogBackend = logging.BackendSlog
	c.LookupEnabled = true
	c.LookupBaseURL = lookup.DefaultBaseURL
	c.S3Region = "us-east-1"
}

// LoadConfig builds a Config by applying defaults, then the environment
// (seeded from .env), an optional JSON file and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// StorageSettings returns the backend selection inputs.
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
