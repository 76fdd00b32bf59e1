// Package envx reads configuration from the process environment, optionally
// seeded from dotenv files.
package envx

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the given dotenv files into the process environment. Missing
// files are skipped; variables that are already set are never overridden.
func Load(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// String returns the value of key, or def when it is unset or empty.
func String(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// Int returns key parsed as an int, or def when unset or malformed.
func Int(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(String(key, "")))
	if err != nil {
		return def
	}
	return v
}

// Bool returns key parsed with strconv.ParseBool, or def when unset or malformed.
func Bool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(String(key, "")))
	if err != nil {
		return def
	}
	return v
}

// Duration returns key parsed with time.ParseDuration, or def when unset or malformed.
func Duration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(String(key, "")))
	if err != nil {
		return def
	}
	return v
}

// List splits a comma separated value, trimming blanks. def is returned when unset.
func List(key string, def []string) []string {
	raw := String(key, "")
	if raw == "" {
		return def
	}
	return SplitList(raw)
}

// SplitList splits s on commas and drops empty items.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
