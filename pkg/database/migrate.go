package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// NewMigrator creates a migrate instance for databaseURL. The migrator
// owns its own connection; closing it closes that connection.
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	conn, err := Parse(databaseURL)
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrationsFS, "migrations/"+string(conn.Dialect))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	db, err := sql.Open(string(conn.Dialect), conn.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var driver migratedb.Driver
	switch conn.Dialect {
	case Postgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case SQLite:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("no migrations for dialect %q", conn.Dialect)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(conn.Dialect), driver)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// RunMigrations applies all pending migrations.
// An up-to-date schema is not an error.
func RunMigrations(databaseURL string) error {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
