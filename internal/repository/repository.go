package repository

import (
	"context"

	"github.com/jbweber/homelab/pokedex/internal/domain"
)

// Field names a queryable document field
type Field string

const (
	FieldID   Field = "id"
	FieldNo   Field = "no"
	FieldName Field = "name"
)

// Filter selects documents whose Field equals Value
type Filter struct {
	Field Field
	Value any
}

// ByID filters on the identity token
func ByID(id string) Filter { return Filter{Field: FieldID, Value: id} }

// ByNo filters on the catalogue number
func ByNo(no int64) Filter { return Filter{Field: FieldNo, Value: no} }

// ByName filters on the stored (lowercase) name
func ByName(name string) Filter { return Filter{Field: FieldName, Value: name} }

// Repository defines the document store operations the service layer consumes.
// T is the stored document, P the partial update applied to it.
type Repository[T any, P any] interface {
	// Insert stores a new document and returns it with its identity assigned.
	// Returns a *DuplicateKeyError on a uniqueness violation.
	Insert(ctx context.Context, doc T) (T, error)

	// FindOne returns the first document matching filter.
	// Returns ErrNotFound if nothing matches
	FindOne(ctx context.Context, filter Filter) (T, error)

	// FindByID retrieves a document by its identity token.
	// Returns ErrNotFound if the document doesn't exist
	FindByID(ctx context.Context, id string) (T, error)

	// Find returns a page of documents ordered by catalogue number
	Find(ctx context.Context, page domain.Page) ([]T, error)

	// UpdateOne applies patch to the document matching filter.
	// Returns a *DuplicateKeyError on a uniqueness violation.
	UpdateOne(ctx context.Context, filter Filter, patch P) error

	// DeleteOne removes the document matching filter and reports how many were deleted
	DeleteOne(ctx context.Context, filter Filter) (int64, error)

	// Count returns the number of stored documents
	Count(ctx context.Context) (int64, error)

	// IsValidID reports whether s is a well-formed identity token
	IsValidID(s string) bool
}

// PokemonRepository extends the generic Repository with catalogue-wide operations
type PokemonRepository interface {
	Repository[domain.Pokemon, domain.PokemonPatch]

	// DeleteAll empties the catalogue and reports how many documents were removed
	DeleteAll(ctx context.Context) (int64, error)

	// Close releases resources held by the repository
	Close() error
}
