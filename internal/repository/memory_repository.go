package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-memdb"

	"github.com/jbweber/homelab/pokedex/internal/domain"
)

const pokemonTable = "pokemon"

// pokemonSchema indexes Pokemon by identity token, number and name.
// memdb does not reject duplicates on secondary unique indexes, so writes
// check them explicitly inside the write transaction.
func pokemonSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			pokemonTable: {
				Name: pokemonTable,
				Indexes: map[string]*memdb.IndexSchema{
					string(FieldID): {
						Name:    string(FieldID),
						Unique:  true,
						Indexer: &memdb.UUIDFieldIndex{Field: "ID"},
					},
					string(FieldNo): {
						Name:    string(FieldNo),
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "No"},
					},
					string(FieldName): {
						Name:    string(FieldName),
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Name"},
					},
				},
			},
		},
	}
}

// memoryPokemonRepository implements PokemonRepository on an in-process memdb
type memoryPokemonRepository struct {
	db *memdb.MemDB
}

// NewMemoryPokemonRepository creates an empty in-memory Pokemon repository
func NewMemoryPokemonRepository() (PokemonRepository, error) {
	db, err := memdb.NewMemDB(pokemonSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memory store: %w", err)
	}
	return &memoryPokemonRepository{db: db}, nil
}

// Insert stores a new Pokemon under a freshly generated identity token
func (r *memoryPokemonRepository) Insert(ctx context.Context, p domain.Pokemon) (domain.Pokemon, error) {
	p.ID = newID()

	txn := r.db.Txn(true)
	defer txn.Abort()

	if err := checkUnique(txn, p); err != nil {
		return domain.Pokemon{}, err
	}
	stored := p
	if err := txn.Insert(pokemonTable, &stored); err != nil {
		return domain.Pokemon{}, fmt.Errorf("failed to insert pokemon: %w", err)
	}
	txn.Commit()
	return p, nil
}

// FindOne returns the Pokemon matching filter
func (r *memoryPokemonRepository) FindOne(ctx context.Context, filter Filter) (domain.Pokemon, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	p, err := first(txn, filter)
	if err != nil {
		return domain.Pokemon{}, err
	}
	if p == nil {
		return domain.Pokemon{}, fmt.Errorf("pokemon with %s %v: %w", filter.Field, filter.Value, ErrNotFound)
	}
	return *p, nil
}

// FindByID retrieves a Pokemon by its identity token
func (r *memoryPokemonRepository) FindByID(ctx context.Context, id string) (domain.Pokemon, error) {
	return r.FindOne(ctx, ByID(id))
}

// Find returns a page of Pokemon ordered by catalogue number
func (r *memoryPokemonRepository) Find(ctx context.Context, page domain.Page) ([]domain.Pokemon, error) {
	all, err := r.all()
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].No < all[j].No })

	if page.Offset >= len(all) {
		return []domain.Pokemon{}, nil
	}
	end := len(all)
	if page.Limit >= 0 && page.Limit < end-page.Offset {
		end = page.Offset + page.Limit
	}
	return all[page.Offset:end], nil
}

// UpdateOne applies patch to the Pokemon matching filter.
// Matching nothing is not an error.
func (r *memoryPokemonRepository) UpdateOne(ctx context.Context, filter Filter, patch domain.PokemonPatch) error {
	if patch.Empty() {
		return nil
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	current, err := first(txn, filter)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}

	updated := patch.Apply(*current)
	if err := checkUnique(txn, updated); err != nil {
		return err
	}
	if err := txn.Insert(pokemonTable, &updated); err != nil {
		return fmt.Errorf("failed to update pokemon: %w", err)
	}
	txn.Commit()
	return nil
}

// DeleteOne removes the Pokemon matching filter
func (r *memoryPokemonRepository) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	txn := r.db.Txn(true)
	defer txn.Abort()

	p, err := first(txn, filter)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, nil
	}
	if err := txn.Delete(pokemonTable, p); err != nil {
		return 0, fmt.Errorf("failed to delete pokemon: %w", err)
	}
	txn.Commit()
	return 1, nil
}

// DeleteAll empties the table
func (r *memoryPokemonRepository) DeleteAll(ctx context.Context) (int64, error) {
	txn := r.db.Txn(true)
	defer txn.Abort()

	n, err := txn.DeleteAll(pokemonTable, string(FieldID))
	if err != nil {
		return 0, fmt.Errorf("failed to delete all pokemon: %w", err)
	}
	txn.Commit()
	return int64(n), nil
}

// Count returns the number of stored Pokemon
func (r *memoryPokemonRepository) Count(ctx context.Context) (int64, error) {
	all, err := r.all()
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

// IsValidID reports whether s is a canonical UUID
func (r *memoryPokemonRepository) IsValidID(s string) bool {
	return isValidID(s)
}

// Close is a no-op; the store lives as long as the process
func (r *memoryPokemonRepository) Close() error {
	return nil
}

func (r *memoryPokemonRepository) all() ([]domain.Pokemon, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(pokemonTable, string(FieldID))
	if err != nil {
		return nil, fmt.Errorf("failed to list pokemon: %w", err)
	}
	var all []domain.Pokemon
	for obj := it.Next(); obj != nil; obj = it.Next() {
		all = append(all, *obj.(*domain.Pokemon))
	}
	return all, nil
}

// first looks up the single Pokemon matching filter, or nil
func first(txn *memdb.Txn, filter Filter) (*domain.Pokemon, error) {
	if _, err := columnFor(filter.Field); err != nil {
		return nil, err
	}
	// UUIDFieldIndex rejects malformed tokens, which simply match nothing here
	if filter.Field == FieldID {
		if id, _ := filter.Value.(string); !isValidID(id) {
			return nil, nil
		}
	}

	raw, err := txn.First(pokemonTable, string(filter.Field), filter.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to find pokemon by %s: %w", filter.Field, err)
	}
	if raw == nil {
		return nil, nil
	}
	return raw.(*domain.Pokemon), nil
}

// checkUnique fails with a DuplicateKeyError when another Pokemon holds p's number or name
func checkUnique(txn *memdb.Txn, p domain.Pokemon) error {
	for _, f := range []Filter{ByNo(p.No), ByName(p.Name)} {
		other, err := first(txn, f)
		if err != nil {
			return err
		}
		if other != nil && other.ID != p.ID {
			return &DuplicateKeyError{Field: string(f.Field), Value: f.Value}
		}
	}
	return nil
}
