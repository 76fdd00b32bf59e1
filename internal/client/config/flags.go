package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/cardkeeper/internal/flagx"
)

// GlobalFlags are the configuration flags; they may appear anywhere on the
// command line. The SQLite file is -db because -f belongs to "list".
var GlobalFlags = []string{
	"-a", "-b", "-db", "-d", "-u", "-k", "-l", "-p",
	"-lookup-url", "-lookup-key",
	"-s3-region", "-s3-endpoint", "-s3-access-key", "-s3-secret-key", "-s3-bucket",
	"-c", "-config",
}

// parseFlags populates Config fields from the global flags.
//
//	-a string    API server base URL (signup, signin)
//	-b string    storage backend: auto, sqlite, postgres, supabase
//	-db string   SQLite database file
//	-d string    PostgreSQL DSN
//	-u string    Supabase project URL
//	-k string    Supabase service key
//	-l string    log backend: slog or logrus
//	-p bool      Pokemon TCG API validation (-p=false disables)
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], GlobalFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "API server base URL")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "storage backend")
	fs.StringVar(&cfg.SQLitePath, "db", cfg.SQLitePath, "SQLite database file")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SupabaseURL, "u", cfg.SupabaseURL, "Supabase URL")
	fs.StringVar(&cfg.SupabaseKey, "k", cfg.SupabaseKey, "Supabase service key")
	fs.StringVar(&cfg.LogBackend, "l", cfg.LogBackend, "log backend")
	fs.BoolVar(&cfg.LookupEnabled, "p", cfg.LookupEnabled, "Pokemon TCG API validation")
	fs.StringVar(&cfg.LookupBaseURL, "lookup-url", cfg.LookupBaseURL, "Pokemon TCG API base URL")
	fs.StringVar(&cfg.LookupAPIKey, "lookup-key", cfg.LookupAPIKey, "Pokemon TCG API key")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3AccessKey, "s3-access-key", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "s3-secret-key", cfg.S3SecretKey, "S3 secret key")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "S3 backup bucket")

	// handled by parseJson
	fs.String("c", "", "config file")
	fs.String("config", "", "config file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
