// Package repomanager chooses the storage backend at startup, opens it and
// vends card repositories bound to it.
package repomanager

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/supabase"
)

// Kind names a storage backend.
type Kind string

const (
	KindAuto     Kind = "auto"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindSupabase Kind = "supabase"
)

// DefaultSQLitePath is used when no path is configured.
const DefaultSQLitePath = "cards.db"

// Settings is the storage part of the process configuration.
type Settings struct {
	Backend     Kind
	SQLitePath  string
	DatabaseDSN string
	SupabaseURL string
	SupabaseKey string
}

// ParseKind accepts the backend names case-insensitively; empty means auto.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindAuto, nil
	case KindAuto, KindSQLite, KindPostgres, KindSupabase:
		return k, nil
	default:
		return "", &common.ConfigError{Key: "CARDKEEPER_BACKEND", Message: fmt.Sprintf("unknown backend %q", s)}
	}
}

// Select decides which backend s describes without touching it. An explicit
// kind always wins. In auto mode a Supabase URL selects the hosted backend,
// a DSN selects Postgres and SQLite is the fallback. Incomplete settings for
// the chosen backend are a *common.ConfigError; Select never falls back to
// another backend.
func Select(s Settings) (Kind, error) {
	kind := s.Backend
	if kind == "" {
		kind = KindAuto
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return "", err
	}

	if kind == KindAuto {
		switch {
		case s.SupabaseURL != "":
			kind = KindSupabase
		case s.DatabaseDSN != "":
			kind = KindPostgres
		default:
			kind = KindSQLite
		}
	}

	switch kind {
	case KindSupabase:
		if s.SupabaseURL == "" {
			return "", &common.ConfigError{Key: "SUPABASE_URL", Message: "must be set for the supabase backend"}
		}
		if _, err := supabase.ValidateURL(s.SupabaseURL); err != nil {
			return "", err
		}
		if s.SupabaseKey == "" {
			return "", &common.ConfigError{Key: "SUPABASE_KEY", Message: "must be set for the supabase backend"}
		}
	case KindPostgres:
		if s.DatabaseDSN == "" {
			return "", &common.ConfigError{Key: "DATABASE_URL", Message: "must be set for the postgres backend"}
		}
	}
	return kind, nil
}
