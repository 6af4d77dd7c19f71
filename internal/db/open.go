// Package db opens the durable store and carries its embedded migrations.
// Two drivers are supported: postgres (pgx) and the embedded sqlite driver
// for single-binary deployments.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
)

// Flavor identifies the SQL dialect behind a DSN.
type Flavor string

const (
	FlavorPostgres Flavor = "postgres"
	FlavorSQLite   Flavor = "sqlite"
)

// ParseDSN returns the dialect flavor, the database/sql driver name, and the
// driver-level data source for the given DSN. Supported schemes are
// postgres:// (or postgresql://) and sqlite://path.
func ParseDSN(dsn string) (Flavor, string, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return FlavorPostgres, "pgx", dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", "", errors.New("db: sqlite DSN is missing a path")
		}
		// busy_timeout keeps concurrent appends from failing fast with SQLITE_BUSY.
		return FlavorSQLite, "sqlite", path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
	}
	return "", "", "", fmt.Errorf("db: unsupported DSN %q (want postgres:// or sqlite://)", dsn)
}

// Open opens the store for the given DSN and verifies connectivity.
// Caller must call Close when done.
func Open(dsn string) (*sql.DB, error) {
	flavor, driver, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, err
	}
	if flavor == FlavorSQLite {
		// sqlite allows one writer; a single pooled conn serializes writes cleanly.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// IsUniqueViolation reports whether err is a unique-constraint violation from
// either supported driver. Repositories use it to surface duplicate identities.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		code := sqErr.Code()
		return code == 1555 || code == 2067 // SQLITE_CONSTRAINT_{PRIMARYKEY,UNIQUE}
	}
	return false
}
