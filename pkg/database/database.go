package database

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"net/url"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Dialect selects the SQL flavour used for placeholders and migrations.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

// NewPostgres connects with the full url when given, otherwise to the local
// database at host.
func NewPostgres(pgURL, host string) (*sql.DB, error) {
	dsn := pgURL
	if dsn == "" {
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword("postgres", "postgres"),
			Host:     host,
			Path:     "nyay_sahayak",
			RawQuery: "sslmode=disable",
		}
		dsn = u.String()
	}

	db := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if err := runMigrations(db, Postgres); err != nil {
		return nil, err
	}
	return db, nil
}

// NewSQLite opens (creating if needed) a database file; ":memory:" is allowed.
func NewSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if err := runMigrations(db, SQLite); err != nil {
		return nil, err
	}
	return db, nil
}

func runMigrations(db *sql.DB, dialect Dialect) error {
	src := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations,
		Root:       "migrations",
	}

	n, err := migrate.Exec(db, string(dialect), src, migrate.Up)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	slog.Info("migrations applied", "dialect", dialect, "count", n)
	return nil
}
