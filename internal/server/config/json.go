package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/cardkeeper/internal/flagx"
	"github.com/dmitrijs2005/cardkeeper/internal/timex"
)

// JsonConfig is the DTO read from the JSON config file. Durations accept
// "10s" or integer nanoseconds. Absent keys leave the current value alone.
type JsonConfig struct {
	Addr           string          `json:"addr"`
	Backend        string          `json:"backend"`
	SQLitePath     string          `json:"sqlite_path"`
	DatabaseDSN    string          `json:"database_dsn"`
	SupabaseURL    string          `json:"supabase_url"`
	SupabaseKey    string          `json:"supabase_key"`
	JWTSecret      string          `json:"jwt_secret"`
	AllowedOrigins []string        `json:"allowed_origins"`
	RateLimit      *int            `json:"rate_limit"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	LogBackend     string          `json:"log_backend"`
	LookupEnabled  *bool           `json:"lookup_enabled"`
	LookupBaseURL  string          `json:"lookup_base_url"`
	LookupAPIKey   string          `json:"lookup_api_key"`
	S3Region       string          `json:"s3_region"`
	S3Endpoint     string          `json:"s3_endpoint"`
	S3AccessKey    string          `json:"s3_access_key"`
	S3SecretKey    string          `json:"s3_secret_key"`
	S3Bucket       string          `json:"s3_bucket"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson loads the file named by -c or -config, if any, into config.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.Addr, c.Addr)
	setString(&config.Backend, c.Backend)
	setString(&config.SQLitePath, c.SQLitePath)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SupabaseURL, c.SupabaseURL)
	setString(&config.SupabaseKey, c.SupabaseKey)
	setString(&config.JWTSecret, c.JWTSecret)
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
	if c.RateLimit != nil {
		config.RateLimit = *c.RateLimit
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	setString(&config.LogBackend, c.LogBackend)
	if c.LookupEnabled != nil {
		config.LookupEnabled = *c.LookupEnabled
	}
	setString(&config.LookupBaseURL, c.LookupBaseURL)
	setString(&config.LookupAPIKey, c.LookupAPIKey)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3Endpoint, c.S3Endpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
}
