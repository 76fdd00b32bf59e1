package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/filex"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/migrations"
	"github.com/dmitrijs2005/cardkeeper/internal/repositories/cards"
	"github.com/dmitrijs2005/cardkeeper/internal/supabase"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Seams for tests.
var (
	sqlOpen       = sql.Open
	runMigrations = migrations.Up
)

// Manager owns the opened backend. For the SQL backends it owns the
// *sql.DB; Close releases it.
type Manager struct {
	kind   Kind
	db     *sql.DB
	remote *supabase.Client
	cards  cards.Repository
	logger logging.Logger
}

// Open selects the backend for s, connects to it and applies migrations.
func Open(ctx context.Context, s Settings, logger logging.Logger) (*Manager, error) {
	logger = logger.With("module", "repomanager")

	kind, err := Select(s)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "storage backend selected",
		"backend", string(kind),
		"sqlite_path", s.SQLitePath,
		"database_url", logging.Redact(s.DatabaseDSN),
		"supabase_url", s.SupabaseURL,
		"supabase_key", logging.Redact(s.SupabaseKey),
	)

	m := &Manager{kind: kind, logger: logger}
	switch kind {
	case KindSQLite:
		path := s.SQLitePath
		if path == "" {
			path = DefaultSQLitePath
		}
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("sqlite: %w: %w", common.ErrStorageUnavailable, err)
		}
		// one connection: a single writer, and an in-memory database stays one database
		db, err := openSQL(ctx, "sqlite", path, migrations.SQLite, 1)
		if err != nil {
			return nil, err
		}
		m.db = db
		m.cards = cards.NewSQLiteRepository(db)
	case KindPostgres:
		db, err := openSQL(ctx, "pgx", s.DatabaseDSN, migrations.Postgres, 0)
		if err != nil {
			return nil, err
		}
		m.db = db
		m.cards = cards.NewPostgresRepository(db)
	case KindSupabase:
		c, err := supabase.New(s.SupabaseURL, s.SupabaseKey, supabase.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		m.remote = c
		m.cards = cards.NewRESTRepository(c)
	}
	return m, nil
}

func openSQL(ctx context.Context, driver, dsn string, d migrations.Dialect, maxConns int) (*sql.DB, error) {
	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", driver, common.ErrStorageUnavailable, err)
	}
	db.SetMaxOpenConns(maxConns)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w: %w", driver, common.ErrStorageUnavailable, err)
	}
	if err := runMigrations(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (m *Manager) Kind() Kind {
	return m.kind
}

// Cards returns the service-scope repository.
func (m *Manager) Cards() cards.Repository {
	return m.cards
}

// CardsForUser returns a repository confined to the owner of token. Only the
// hosted backend can enforce that; local backends report ErrUnsupported.
func (m *Manager) CardsForUser(token string) (cards.Repository, error) {
	if m.remote == nil {
		return nil, fmt.Errorf("per-user storage on %s backend: %w", m.kind, common.ErrUnsupported)
	}
	if token == "" {
		return nil, common.ErrUnauthorized
	}
	return cards.NewRESTRepository(m.remote.WithUserToken(token)), nil
}

// Remote exposes the hosted client, nil for the SQL backends.
func (m *Manager) Remote() *supabase.Client {
	return m.remote
}

// DB exposes the SQL handle, nil for the hosted backend.
func (m *Manager) DB() *sql.DB {
	return m.db
}

// Ping reports whether the backend answers.
func (m *Manager) Ping(ctx context.Context) error {
	switch {
	case m.db != nil:
		return m.db.PingContext(ctx)
	case m.remote != nil:
		return m.remote.Ping(ctx)
	default:
		return errors.New("storage is not open")
	}
}

func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}
