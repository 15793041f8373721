package testutil

import (
	"testing"
)

func TestSetupTestDB(t *testing.T) {
	ds := SetupTestDB(t)

	if ds == nil {
		t.Fatal("Expected non-nil datastore")
	}

	if err := ds.DB.Ping(); err != nil {
		t.Errorf("Database ping failed: %v", err)
	}

	var result string
	if err := ds.DB.QueryRow("SELECT 'test'").Scan(&result); err != nil {
		t.Errorf("Test query failed: %v", err)
	}
	if result != "test" {
		t.Errorf("Expected 'test', got '%s'", result)
	}
}

func TestSetupTestDBWithMigrations(t *testing.T) {
	ds := SetupTestDBWithMigrations(t)

	for _, table := range []string{"schema_migrations", "pokemon"} {
		var count int
		err := ds.DB.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Errorf("Error checking for table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("Expected table %s to exist", table)
		}
	}
}

func TestSetupTestDBWithMigrations_TableCreation(t *testing.T) {
	ds := SetupTestDBWithMigrations(t)

	_, err := ds.DB.Exec("INSERT INTO pokemon (id, no, name) VALUES (?, ?, ?)", "4f8a8f0e-6c1e-4a43-9d8a-3f2f2c2d1b10", 25, "pikachu")
	if err != nil {
		t.Fatalf("Failed to insert into pokemon table: %v", err)
	}

	var no int64
	var name string
	err = ds.DB.QueryRow("SELECT no, name FROM pokemon WHERE name = ?", "pikachu").Scan(&no, &name)
	if err != nil {
		t.Errorf("Failed to query from pokemon table: %v", err)
	}
	if no != 25 || name != "pikachu" {
		t.Errorf("Unexpected data: no=%d, name=%s", no, name)
	}
}

func TestSetupTestDB_MultipleInstances(t *testing.T) {
	var first, second interface{ Ping() error }

	t.Run("first", func(t *testing.T) {
		ds := SetupTestDB(t)
		first = ds.DB
		if err := ds.DB.Ping(); err != nil {
			t.Errorf("First database failed: %v", err)
		}
	})
	t.Run("second", func(t *testing.T) {
		ds := SetupTestDB(t)
		second = ds.DB
		if err := ds.DB.Ping(); err != nil {
			t.Errorf("Second database failed: %v", err)
		}
	})

	if first == second {
		t.Error("Expected different database instances")
	}
}

func TestSetupFileTestDBWithMigrations(t *testing.T) {
	ds := SetupFileTestDBWithMigrations(t)

	var timeout int
	if err := ds.DB.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("Failed to read busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("Expected busy_timeout 5000, got %d", timeout)
	}

	var count int
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM pokemon").Scan(&count); err != nil {
		t.Errorf("Expected pokemon table to exist: %v", err)
	}
}
