package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/cardkeeper/internal/flagx"
	"github.com/dmitrijs2005/cardkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// leave the current value alone.
type JsonConfig struct {
	APIURL        string          `json:"api_url"`
	APITimeout    *timex.Duration `json:"api_timeout"`
	Backend       string          `json:"backend"`
	SQLitePath    string          `json:"sqlite_path"`
	DatabaseDSN   string          `json:"database_dsn"`
	SupabaseURL   string          `json:"supabase_url"`
	SupabaseKey   string          `json:"supabase_key"`
	LogBackend    string          `json:"log_backend"`
	LookupEnabled *bool           `json:"lookup_enabled"`
	LookupBaseURL string          `json:"lookup_base_url"`
	LookupAPIKey  string          `json:"lookup_api_key"`
	S3Region      string          `json:"s3_region"`
	S3Endpoint    string          `json:"s3_endpoint"`
	S3AccessKey   string          `json:"s3_access_key"`
	S3SecretKey   string          `json:"s3_secret_key"`
	S3Bucket      string          `json:"s3_bucket"`
}

// parseJson overlays cfg with the file named by -c or -config. Read or
// unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	for _, f := range []struct {
		dst *string
		v   string
	}{
		{&cfg.APIURL, jc.APIURL},
		{&cfg.Backend, jc.Backend},
		{&cfg.SQLitePath, jc.SQLitePath},
		{&cfg.DatabaseDSN, jc.DatabaseDSN},
		{&cfg.SupabaseURL, jc.SupabaseURL},
		{&cfg.SupabaseKey, jc.SupabaseKey},
		{&cfg.LogBackend, jc.LogBackend},
		{&cfg.LookupBaseURL, jc.LookupBaseURL},
		{&cfg.LookupAPIKey, jc.LookupAPIKey},
		{&cfg.S3Region, jc.S3Region},
		{&cfg.S3Endpoint, jc.S3Endpoint},
		{&cfg.S3AccessKey, jc.S3AccessKey},
		{&cfg.S3SecretKey, jc.S3SecretKey},
		{&cfg.S3Bucket, jc.S3Bucket},
	} {
		if f.v != "" {
			*f.dst = f.v
		}
	}
	if jc.APITimeout != nil {
		cfg.APITimeout = jc.APITimeout.Duration
	}
	if jc.LookupEnabled != nil {
		cfg.LookupEnabled = *jc.LookupEnabled
	}
}
