// Package testsupport provides shared fixtures for package tests: a
// migrated throwaway database, a media store in a temp directory and a
// stub media processor.
package testsupport

import (
	"path/filepath"
	"testing"

	"movieshare-backend/internal/database"
)

// MustOpenDB opens a migrated SQLite database in a temp directory and
// registers cleanup.
func MustOpenDB(t testing.TB) *database.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Init(path)
	if err != nil {
		t.Fatalf("database.Init: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("database.Migrate: %v", err)
	}
	return db
}
