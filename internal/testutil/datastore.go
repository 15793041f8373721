package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jbweber/homelab/pokedex/internal/datastore"
	"github.com/jbweber/homelab/pokedex/internal/migrations"
	_ "modernc.org/sqlite"
)

// SetupTestDB opens an empty in-memory SQLite datastore that is closed when the test ends
func SetupTestDB(t *testing.T) *datastore.Datastore {
	t.Helper()

	ds, err := datastore.Open(context.Background(), datastore.DriverSQLite, NewTestDSN(t.Name()))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := ds.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return ds
}

// SetupTestDBWithMigrations opens an in-memory SQLite datastore with the schema applied
func SetupTestDBWithMigrations(t *testing.T) *datastore.Datastore {
	t.Helper()

	ds := SetupTestDB(t)
	if _, err := migrations.Migrate(context.Background(), ds); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return ds
}

// SetupFileTestDBWithMigrations opens a migrated SQLite database file under t.TempDir().
// Writers from several connections wait on each other instead of failing with SQLITE_BUSY.
func SetupFileTestDBWithMigrations(t *testing.T) *datastore.Datastore {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "pokedex.db") +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	ds, err := datastore.Open(context.Background(), datastore.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := ds.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	if _, err := migrations.Migrate(context.Background(), ds); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return ds
}
