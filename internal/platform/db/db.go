package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects driver-specific SQL.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DialectFromURL picks the dialect from a connection string.
// postgres:// and postgresql:// URLs use pgx; anything else is a SQLite path.
func DialectFromURL(databaseURL string) Dialect {
	u := strings.ToLower(databaseURL)
	if strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") {
		return Postgres
	}
	return SQLite
}

func Open(databaseURL string) (*sql.DB, Dialect, error) {
	dialect := DialectFromURL(databaseURL)

	switch dialect {
	case Postgres:
		db, err := sql.Open("pgx", databaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("openDB: open postgres database: %w", err)
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)

		if err := db.Ping(); err != nil {
			return nil, "", fmt.Errorf("openDB: verify postgres connection: %w", err)
		}
		return db, dialect, nil

	default:
		dsn := strings.TrimPrefix(databaseURL, "sqlite://")
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("openDB: open sqlite database %q: %w", dsn, err)
		}

		// A single connection serializes writers, so a transaction's
		// check-then-insert cannot interleave with another one.
		db.SetMaxOpenConns(1)

		if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("openDB: configure sqlite %q: %w", dsn, err)
		}
		if err := db.Ping(); err != nil {
			return nil, "", fmt.Errorf("openDB: verify sqlite connection to %q: %w", dsn, err)
		}
		return db, dialect, nil
	}
}
