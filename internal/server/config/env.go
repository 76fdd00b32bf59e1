package config

import (
	"github.com/dmitrijs2005/cardkeeper/internal/envx"
)

// dotenvFile is read from the working directory when present.
var dotenvFile = ".env"

// parseEnv overlays environment variables, after exporting the dotenv file
// into the process environment. A malformed dotenv file panics, like a
// malformed JSON file does.
func parseEnv(config *Config) {
	if err := envx.Load(dotenvFile); err != nil {
		panic(err)
	}

	config.Addr = envx.String("CARDKEEPER_ADDR", config.Addr)
	config.Backend = envx.String("CARDKEEPER_BACKEND", config.Backend)
	config.SQLitePath = envx.String("CARDS_DB", config.SQLitePath)
	config.DatabaseDSN = envx.String("DATABASE_URL", config.DatabaseDSN)
	config.SupabaseURL = envx.String("SUPABASE_URL", config.SupabaseURL)
	config.SupabaseKey = envx.String("SUPABASE_KEY", config.SupabaseKey)
	config.JWTSecret = envx.String("SUPABASE_JWT_SECRET", config.JWTSecret)
	config.AllowedOrigins = envx.List("ALLOWED_ORIGINS", config.AllowedOrigins)
	config.RateLimit = envx.Int("RATE_LIMIT", config.RateLimit)
	config.RequestTimeout = envx.Duration("REQUEST_TIMEOUT", config.RequestTimeout)
	config.LogBackend = envx.String("LOG_BACKEND", config.LogBackend)
	config.LookupEnabled = envx.Bool("POKEMON_TCG_API_ENABLED", config.LookupEnabled)
	config.LookupBaseURL = envx.String("POKEMON_TCG_API_BASE_URL", config.LookupBaseURL)
	config.LookupAPIKey = envx.String("POKEMON_TCG_API_KEY", config.LookupAPIKey)
	config.S3Region = envx.String("S3_REGION", config.S3Region)
	config.S3Endpoint = envx.String("S3_ENDPOINT", config.S3Endpoint)
	config.S3AccessKey = envx.String("S3_ACCESS_KEY", config.S3AccessKey)
	config.S3SecretKey = envx.String("S3_SECRET_KEY", config.S3SecretKey)
	config.S3Bucket = envx.String("S3_BUCKET", config.S3Bucket)
}
