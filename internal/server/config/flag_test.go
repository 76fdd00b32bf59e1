package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", ":9090", "-b", "sqlite", "-f", "my.db", "-d", "db", "-u", "https://x.supabase.co",
			"-k", "key", "-j", "secret", "-o", "http://a,http://b", "-r", "5", "-t", "3s", "-l", "logrus",
			"-p=false", "-lookup-url", "http://lookup", "-lookup-key", "lk",
			"-s3-region", "us-west-1", "-s3-endpoint", "http://endpoint", "-s3-access-key", "user",
			"-s3-secret-key", "password", "-s3-bucket", "bucket",
		}, expected: &Config{
			Addr:           ":9090",
			Backend:        "sqlite",
			SQLitePath:     "my.db",
			DatabaseDSN:    "db",
			SupabaseURL:    "https://x.supabase.co",
			SupabaseKey:    "key",
			JWTSecret:      "secret",
			AllowedOrigins: []string{"http://a", "http://b"},
			RateLimit:      5,
			RequestTimeout: 3 * time.Second,
			LogBackend:     "logrus",
			LookupEnabled:  false,
			LookupBaseURL:  "http://lookup",
			LookupAPIKey:   "lk",
			S3Region:       "us-west-1",
			S3Endpoint:     "http://endpoint",
			S3AccessKey:    "user",
			S3SecretKey:    "password",
			S3Bucket:       "bucket",
		}},
		{name: "unknown flags are ignored", args: []string{"cmd", "-z", "1", "-a", ":1"},
			expected: &Config{Addr: ":1"}},
		{name: "bad int", args: []string{"cmd", "-r", "many"}, expectPanic: true},
		{name: "bad duration", args: []string{"cmd", "-t", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(tt.expected, config))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
