package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/jbweber/homelab/pokedex/internal/datastore"
)

// Migration represents a database migration with up and down functions.
// Both run inside the transaction that records the version change.
type Migration struct {
	Version int64
	Name    string
	Up      func(ctx context.Context, tx *sql.Tx, d datastore.Dialect) error
	Down    func(ctx context.Context, tx *sql.Tx, d datastore.Dialect) error
}

// Migrator handles database migrations
type Migrator struct {
	db         *sql.DB
	dialect    datastore.Dialect
	migrations []Migration
}

// NewMigrator creates a new migrator instance
func NewMigrator(db *sql.DB, dialect datastore.Dialect) *Migrator {
	return &Migrator{
		db:         db,
		dialect:    dialect,
		migrations: []Migration{},
	}
}

// AddMigration adds a migration to the migrator
func (m *Migrator) AddMigration(migration Migration) {
	m.migrations = append(m.migrations, migration)
	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].Version < m.migrations[j].Version
	})
}

// RunMigrations runs all pending migrations and returns how many were applied
func (m *Migrator) RunMigrations(ctx context.Context) (int, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}

	applied := 0
	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}
		if err := m.runMigration(ctx, migration); err != nil {
			return applied, fmt.Errorf("failed to run migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		applied++
	}

	return applied, nil
}

// Rollback reverts the most recently applied migration.
// Returns the reverted version, or 0 when nothing is applied.
func (m *Migrator) Rollback(ctx context.Context) (int64, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	if currentVersion == 0 {
		return 0, nil
	}

	for _, migration := range m.migrations {
		if migration.Version != currentVersion {
			continue
		}
		if migration.Down == nil {
			return 0, fmt.Errorf("migration %d (%s) cannot be reverted", migration.Version, migration.Name)
		}
		err := m.inTx(ctx, func(tx *sql.Tx) error {
			if err := migration.Down(ctx, tx, m.dialect); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, m.dialect.Rebind("DELETE FROM schema_migrations WHERE version = ?"), migration.Version)
			return err
		})
		if err != nil {
			return 0, fmt.Errorf("failed to revert migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		return migration.Version, nil
	}

	return 0, fmt.Errorf("applied migration %d is not registered", currentVersion)
}

// createMigrationsTable creates the migrations tracking table
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version BIGINT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// getCurrentVersion returns the current migration version
func (m *Migrator) getCurrentVersion(ctx context.Context) (int64, error) {
	var version int64
	err := m.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// runMigration executes a single migration and records it
func (m *Migrator) runMigration(ctx context.Context, migration Migration) error {
	return m.inTx(ctx, func(tx *sql.Tx) error {
		if err := migration.Up(ctx, tx, m.dialect); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, m.dialect.Rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)"), migration.Version, migration.Name)
		return err
	})
}

func (m *Migrator) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// GetCurrentVersion returns the current migration version (public method)
func (m *Migrator) GetCurrentVersion(ctx context.Context) (int64, error) {
	return m.getCurrentVersion(ctx)
}

// GetMigrations returns all registered migrations
func (m *Migrator) GetMigrations() []Migration {
	return m.migrations
}

// ForDatastore returns a migrator for ds with every known migration registered
func ForDatastore(ds *datastore.Datastore) *Migrator {
	migrator := NewMigrator(ds.DB, ds.Dialect)
	for _, migration := range GetInitialMigrations() {
		migrator.AddMigration(migration)
	}
	return migrator
}

// Migrate applies every pending migration to ds
func Migrate(ctx context.Context, ds *datastore.Datastore) (int, error) {
	return ForDatastore(ds).RunMigrations(ctx)
}
