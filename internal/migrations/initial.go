package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jbweber/homelab/pokedex/internal/datastore"
)

// GetInitialMigrations returns all initial migrations
func GetInitialMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_pokemon_table",
			Up: func(ctx context.Context, tx *sql.Tx, d datastore.Dialect) error {
				// Constraint names follow uq_<table>_<column> so duplicate-key
				// errors can be traced back to the offending field.
				_, err := tx.ExecContext(ctx, fmt.Sprintf(`
					CREATE TABLE IF NOT EXISTS pokemon (
						id %s NOT NULL PRIMARY KEY,
						no %s NOT NULL,
						name %s NOT NULL,
						created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
						updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
						CONSTRAINT uq_pokemon_no UNIQUE (no),
						CONSTRAINT uq_pokemon_name UNIQUE (name),
						CONSTRAINT ck_pokemon_no CHECK (no >= 1)
					)
				`, d.IDType, d.IntType, d.TextType))
				return err
			},
			Down: func(ctx context.Context, tx *sql.Tx, d datastore.Dialect) error {
				_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS pokemon`)
				return err
			},
		},
	}
}
