package config

import (
	"flag"
	"os"
	"strings"

	"github.com/dmitrijs2005/cardkeeper/internal/envx"
	"github.com/dmitrijs2005/cardkeeper/internal/flagx"
)

var serverFlags = []string{
	"-a", "-b", "-f", "-d", "-u", "-k", "-j", "-o", "-r", "-t", "-l", "-p",
	"-lookup-url", "-lookup-key",
	"-s3-region", "-s3-endpoint", "-s3-access-key", "-s3-secret-key", "-s3-bucket",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     listen address (e.g., "127.0.0.1:8000")
//	-b string     storage backend: auto, sqlite, postgres, supabase
//	-f string     SQLite database file
//	-d string     PostgreSQL DSN
//	-u string     Supabase project URL
//	-k string     Supabase service key
//	-j string     JWT secret for local token verification
//	-o string     comma separated CORS origins
//	-r int        requests per minute per client IP
//	-t duration   request timeout (e.g., "60s")
//	-l string     log backend: slog or logrus
//	-p bool       validate card names against the Pokemon TCG API (-p=false disables)
//
// Lookup and S3 settings have long names only (-lookup-url, -s3-bucket, ...).
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.Backend, "b", config.Backend, "storage backend")
	fs.StringVar(&config.SQLitePath, "f", config.SQLitePath, "SQLite database file")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SupabaseURL, "u", config.SupabaseURL, "Supabase URL")
	fs.StringVar(&config.SupabaseKey, "k", config.SupabaseKey, "Supabase service key")
	fs.StringVar(&config.JWTSecret, "j", config.JWTSecret, "JWT secret")

	origins := fs.String("o", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins")

	fs.IntVar(&config.RateLimit, "r", config.RateLimit, "rate limit (requests per minute)")
	fs.DurationVar(&config.RequestTimeout, "t", config.RequestTimeout, "request timeout")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend")
	fs.BoolVar(&config.LookupEnabled, "p", config.LookupEnabled, "Pokemon TCG API validation")
	fs.StringVar(&config.LookupBaseURL, "lookup-url", config.LookupBaseURL, "Pokemon TCG API base URL")
	fs.StringVar(&config.LookupAPIKey, "lookup-key", config.LookupAPIKey, "Pokemon TCG API key")

	fs.StringVar(&config.S3Region, "s3-region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3Endpoint, "s3-endpoint", config.S3Endpoint, "S3 base endpoint")
	fs.StringVar(&config.S3AccessKey, "s3-access-key", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "s3-secret-key", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "s3-bucket", config.S3Bucket, "S3 backup bucket")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AllowedOrigins = envx.SplitList(*origins)
}
