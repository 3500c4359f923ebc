package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	dbdriver "github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate applies any pending schema migrations for the connected
// backend. Already being current is not an error.
func Migrate(db *DB) error {
	source, err := iofs.New(migrationsFS, "migrations/"+db.Driver)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	var target dbdriver.Driver
	switch db.Driver {
	case DriverPostgres:
		target, err = migratepostgres.WithInstance(db.DB.DB, &migratepostgres.Config{})
	case DriverSQLite:
		target, err = migratesqlite.WithInstance(db.DB.DB, &migratesqlite.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", db.Driver)
	}
	if err != nil {
		return fmt.Errorf("prepare %s migrations: %w", db.Driver, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.Driver, target)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
