package config

import "github.com/dmitrijs2005/cardkeeper/internal/envx"

var dotenvFile = ".env"

func parseEnv(cfg *Config) {
	if err := envx.Load(dotenvFile); err != nil {
		panic(err)
	}

	cfg.APIURL = envx.String("CARDKEEPER_API_URL", cfg.APIURL)
	cfg.APITimeout = envx.Duration("CARDKEEPER_API_TIMEOUT", cfg.APITimeout)
	cfg.Backend = envx.String("CARDKEEPER_BACKEND", cfg.Backend)
	cfg.SQLitePath = envx.String("CARDS_DB", cfg.SQLitePath)
	cfg.DatabaseDSN = envx.String("DATABASE_URL", cfg.DatabaseDSN)
	cfg.SupabaseURL = envx.String("SUPABASE_URL", cfg.SupabaseURL)
	cfg.SupabaseKey = envx.String("SUPABASE_KEY", cfg.SupabaseKey)
	cfg.LogBackend = envx.String("LOG_BACKEND", cfg.LogBackend)
	cfg.LookupEnabled = envx.Bool("POKEMON_TCG_API_ENABLED", cfg.LookupEnabled)
	cfg.LookupBaseURL = envx.String("POKEMON_TCG_API_BASE_URL", cfg.LookupBaseURL)
	cfg.LookupAPIKey = envx.String("POKEMON_TCG_API_KEY", cfg.LookupAPIKey)
	cfg.S3Region = envx.String("S3_REGION", cfg.S3Region)
	cfg.S3Endpoint = envx.String("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3AccessKey = envx.String("S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = envx.String("S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3Bucket = envx.String("S3_BUCKET", cfg.S3Bucket)
}
