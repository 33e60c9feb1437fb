// Package database opens the relational store and manages its schema.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Dialect names the SQL flavour behind a connection
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Conn is a normalized connection string
type Conn struct {
	Dialect Dialect
	DSN     string
}

// DB is a connection pool that knows its dialect
type DB struct {
	*sql.DB
	Dialect Dialect
}

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Parse normalizes a DATABASE_URL. postgres:// and postgresql:// select
// PostgreSQL; sqlite://, sqlite3://, file: and bare paths select SQLite.
func Parse(databaseURL string) (Conn, error) {
	raw := strings.TrimSpace(databaseURL)
	if raw == "" {
		return Conn{}, errors.New("database URL is required")
	}

	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return Conn{Dialect: Postgres, DSN: raw}, nil
	case strings.HasPrefix(raw, "sqlite://"):
		return sqliteConn(strings.TrimPrefix(raw, "sqlite://"))
	case strings.HasPrefix(raw, "sqlite3://"):
		return sqliteConn(strings.TrimPrefix(raw, "sqlite3://"))
	case strings.HasPrefix(raw, "file:"):
		return sqliteConn(raw)
	case strings.Contains(raw, "://"):
		return Conn{}, fmt.Errorf("unsupported database URL scheme in %q", raw)
	default:
		return sqliteConn(raw)
	}
}

func sqliteConn(path string) (Conn, error) {
	if path == "" {
		return Conn{}, errors.New("sqlite database path is required")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return Conn{Dialect: SQLite, DSN: path + sep + sqlitePragmas}, nil
}

// Open opens a pool for databaseURL. Like sql.Open it does not connect;
// use Ping to check reachability.
func Open(databaseURL string) (*DB, error) {
	conn, err := Parse(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(conn.Dialect), conn.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &DB{DB: db, Dialect: conn.Dialect}, nil
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// Rebind rewrites $N placeholders into the dialect's form
func (db *DB) Rebind(query string) string {
	if db.Dialect == SQLite {
		return placeholder.ReplaceAllString(query, "?$1")
	}
	return query
}

// IsUniqueViolation reports whether err is a unique constraint failure
// from either driver
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
