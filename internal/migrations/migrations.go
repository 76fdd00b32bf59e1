// Package migrations embeds the goose migrations of the SQL backends and
// applies them.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Directories inside Migrations, one per dialect.
const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

// Dialect selects the goose dialect together with its migration directory.
type Dialect struct {
	Name string
	Dir  string
}

var (
	SQLite   = Dialect{Name: "sqlite3", Dir: SQLiteDir}
	Postgres = Dialect{Name: "pgx", Dir: PostgresDir}
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Up applies every pending migration of d. goose keeps its settings in
// package globals, so calls must not run concurrently.
func Up(ctx context.Context, db *sql.DB, d Dialect) error {
	goose.SetBaseFS(Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(d.Name); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, d.Dir); err != nil {
		return fmt.Errorf("migrate %s: %w", d.Name, err)
	}
	return nil
}
