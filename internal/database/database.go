// Package database opens the metadata store and keeps its schema
// current. Postgres backs real deployments; a local SQLite file serves
// development and tests.
package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc's driver takes SQLite's native ? placeholders.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

type DB struct {
	*sqlx.DB

	// Driver is DriverPostgres or DriverSQLite.
	Driver string
}

// Init connects to the database named by databaseURL and verifies the
// connection. Postgres URLs and key/value DSNs select lib/pq; anything
// else is treated as a SQLite file path.
func Init(databaseURL string) (*DB, error) {
	driver, dsn := resolve(databaseURL)

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	switch driver {
	case DriverPostgres:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	case DriverSQLite:
		// Single connection sidesteps SQLITE_BUSY between writers.
		db.SetMaxOpenConns(1)
	}

	return &DB{DB: db, Driver: driver}, nil
}

func resolve(databaseURL string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"),
		strings.HasPrefix(databaseURL, "postgresql://"),
		strings.Contains(databaseURL, "host="):
		return DriverPostgres, databaseURL
	default:
		return DriverSQLite, sqliteDSN(databaseURL)
	}
}

// sqliteDSN turns a plain file path into a modernc DSN with the
// pragmas the app relies on.
func sqliteDSN(path string) string {
	dsn := strings.TrimPrefix(path, "sqlite://")
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)"
}
