package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jbweber/homelab/pokedex/internal/datastore"
	"github.com/jbweber/homelab/pokedex/internal/domain"
)

const pokemonColumns = "id, no, name"

// pokemonRepositoryImpl implements PokemonRepository over database/sql
type pokemonRepositoryImpl struct {
	db      *sql.DB
	dialect datastore.Dialect
	stmts   *PreparedStatementCache
}

// NewPokemonRepository creates a new SQL-backed Pokemon repository
func NewPokemonRepository(ds *datastore.Datastore) PokemonRepository {
	return &pokemonRepositoryImpl{
		db:      ds.DB,
		dialect: ds.Dialect,
		stmts:   NewPreparedStatementCache(ds.DB),
	}
}

// stmt returns a cached prepared statement for query written with ? placeholders
func (r *pokemonRepositoryImpl) stmt(ctx context.Context, query string) (*sql.Stmt, error) {
	return r.stmts.Get(ctx, r.dialect.Rebind(query))
}

// Insert stores a new Pokemon under a freshly generated identity token
func (r *pokemonRepositoryImpl) Insert(ctx context.Context, p domain.Pokemon) (domain.Pokemon, error) {
	p.ID = newID()

	stmt, err := r.stmt(ctx, "INSERT INTO pokemon (id, no, name) VALUES (?, ?, ?)")
	if err != nil {
		return domain.Pokemon{}, fmt.Errorf("failed to prepare pokemon insert: %w", err)
	}
	if _, err := stmt.ExecContext(ctx, p.ID, p.No, p.Name); err != nil {
		if column, ok := r.dialect.DuplicateColumn(err); ok {
			return domain.Pokemon{}, duplicateFor(column, p.No, p.Name)
		}
		return domain.Pokemon{}, fmt.Errorf("failed to insert pokemon: %w", err)
	}
	return p, nil
}

// FindOne returns the Pokemon matching filter
func (r *pokemonRepositoryImpl) FindOne(ctx context.Context, filter Filter) (domain.Pokemon, error) {
	column, err := columnFor(filter.Field)
	if err != nil {
		return domain.Pokemon{}, err
	}
	if filter.Field == FieldID {
		if id, _ := filter.Value.(string); !isValidID(id) {
			return domain.Pokemon{}, fmt.Errorf("pokemon with id %v: %w", filter.Value, ErrNotFound)
		}
	}

	stmt, err := r.stmt(ctx, "SELECT "+pokemonColumns+" FROM pokemon WHERE "+column+" = ?")
	if err != nil {
		return domain.Pokemon{}, fmt.Errorf("failed to prepare pokemon lookup: %w", err)
	}

	var p domain.Pokemon
	err = stmt.QueryRowContext(ctx, filter.Value).Scan(&p.ID, &p.No, &p.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Pokemon{}, fmt.Errorf("pokemon with %s %v: %w", filter.Field, filter.Value, ErrNotFound)
		}
		return domain.Pokemon{}, fmt.Errorf("failed to find pokemon by %s: %w", filter.Field, err)
	}
	return p, nil
}

// FindByID retrieves a Pokemon by its identity token
func (r *pokemonRepositoryImpl) FindByID(ctx context.Context, id string) (domain.Pokemon, error) {
	return r.FindOne(ctx, ByID(id))
}

// findCapHint bounds the slice preallocated for a page
const findCapHint = 64

// Find returns a page of Pokemon ordered by catalogue number
func (r *pokemonRepositoryImpl) Find(ctx context.Context, page domain.Page) ([]domain.Pokemon, error) {
	stmt, err := r.stmt(ctx, "SELECT "+pokemonColumns+" FROM pokemon ORDER BY no ASC LIMIT ? OFFSET ?")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare pokemon listing: %w", err)
	}

	rows, err := stmt.QueryContext(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pokemon: %w", err)
	}
	defer rows.Close()

	pokemon := make([]domain.Pokemon, 0, min(page.Limit, findCapHint))
	for rows.Next() {
		var p domain.Pokemon
		if err := rows.Scan(&p.ID, &p.No, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan pokemon: %w", err)
		}
		pokemon = append(pokemon, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pokemon: %w", err)
	}
	return pokemon, nil
}

// UpdateOne applies patch to the Pokemon matching filter.
// Matching nothing is not an error.
func (r *pokemonRepositoryImpl) UpdateOne(ctx context.Context, filter Filter, patch domain.PokemonPatch) error {
	if patch.Empty() {
		return nil
	}
	column, err := columnFor(filter.Field)
	if err != nil {
		return err
	}

	var (
		sets []string
		args []any
	)
	if patch.No != nil {
		sets = append(sets, "no = ?")
		args = append(args, *patch.No)
	}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, filter.Value)

	stmt, err := r.stmt(ctx, "UPDATE pokemon SET "+strings.Join(sets, ", ")+" WHERE "+column+" = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare pokemon update: %w", err)
	}
	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		if dup, ok := r.dialect.DuplicateColumn(err); ok {
			var no int64
			var name string
			if patch.No != nil {
				no = *patch.No
			}
			if patch.Name != nil {
				name = *patch.Name
			}
			return duplicateFor(dup, no, name)
		}
		return fmt.Errorf("failed to update pokemon: %w", err)
	}
	return nil
}

// DeleteOne removes the Pokemon matching filter
func (r *pokemonRepositoryImpl) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	column, err := columnFor(filter.Field)
	if err != nil {
		return 0, err
	}

	stmt, err := r.stmt(ctx, "DELETE FROM pokemon WHERE "+column+" = ?")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare pokemon delete: %w", err)
	}
	res, err := stmt.ExecContext(ctx, filter.Value)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pokemon: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted pokemon: %w", err)
	}
	return n, nil
}

// DeleteAll empties the pokemon table
func (r *pokemonRepositoryImpl) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM pokemon")
	if err != nil {
		return 0, fmt.Errorf("failed to delete all pokemon: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored Pokemon
func (r *pokemonRepositoryImpl) Count(ctx context.Context) (int64, error) {
	stmt, err := r.stmt(ctx, "SELECT COUNT(*) FROM pokemon")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare pokemon count: %w", err)
	}
	var n int64
	if err := stmt.QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pokemon: %w", err)
	}
	return n, nil
}

// IsValidID reports whether s is a canonical UUID
func (r *pokemonRepositoryImpl) IsValidID(s string) bool {
	return isValidID(s)
}

// Close releases cached prepared statements
func (r *pokemonRepositoryImpl) Close() error {
	return r.stmts.Close()
}

func columnFor(field Field) (string, error) {
	switch field {
	case FieldID, FieldNo, FieldName:
		return string(field), nil
	}
	return "", fmt.Errorf("unknown pokemon field %q", field)
}

// duplicateFor builds the DuplicateKeyError for the column the store reported
func duplicateFor(column string, no int64, name string) *DuplicateKeyError {
	switch Field(column) {
	case FieldNo:
		return &DuplicateKeyError{Field: column, Value: no}
	case FieldName:
		return &DuplicateKeyError{Field: column, Value: name}
	}
	return &DuplicateKeyError{Field: column}
}
