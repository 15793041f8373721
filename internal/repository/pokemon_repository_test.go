package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/pokedex/internal/domain"
	"github.com/jbweber/homelab/pokedex/internal/testutil"
)

// repositories returns every PokemonRepository implementation, freshly created
func repositories(t *testing.T) map[string]PokemonRepository {
	t.Helper()

	memory, err := NewMemoryPokemonRepository()
	require.NoError(t, err)

	sqlRepo := NewPokemonRepository(testutil.SetupTestDBWithMigrations(t))
	t.Cleanup(func() {
		if err := sqlRepo.Close(); err != nil {
			t.Logf("Warning: failed to close repository: %v", err)
		}
	})

	return map[string]PokemonRepository{
		"memory": memory,
		"sqlite": sqlRepo,
	}
}

func seedPokemon(t *testing.T, repo PokemonRepository, entries ...domain.Pokemon) []domain.Pokemon {
	t.Helper()
	saved := make([]domain.Pokemon, len(entries))
	for i, p := range entries {
		var err error
		saved[i], err = repo.Insert(context.Background(), p)
		require.NoError(t, err)
	}
	return saved
}

func int64Ptr(v int64) *int64 { return &v }

func stringPtr(v string) *string { return &v }

func TestPokemonRepository_Insert(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			saved, err := repo.Insert(ctx, domain.Pokemon{No: 25, Name: "pikachu"})
			require.NoError(t, err)
			assert.True(t, repo.IsValidID(saved.ID))
			assert.Equal(t, int64(25), saved.No)
			assert.Equal(t, "pikachu", saved.Name)

			count, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})
	}
}

func TestPokemonRepository_Insert_Duplicates(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedPokemon(t, repo, domain.Pokemon{No: 1, Name: "bulbasaur"})

			_, err := repo.Insert(ctx, domain.Pokemon{No: 1, Name: "ivysaur"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDuplicate)

			var dup *DuplicateKeyError
			require.True(t, errors.As(err, &dup))
			assert.Equal(t, "no", dup.Field)
			assert.Equal(t, `{"no":1}`, dup.KeyValue())

			_, err = repo.Insert(ctx, domain.Pokemon{No: 2, Name: "bulbasaur"})
			require.True(t, errors.As(err, &dup))
			assert.Equal(t, "name", dup.Field)
			assert.Equal(t, `{"name":"bulbasaur"}`, dup.KeyValue())

			count, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})
	}
}

func TestPokemonRepository_FindOne(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			saved := seedPokemon(t, repo, domain.Pokemon{No: 4, Name: "charmander"})[0]

			for _, filter := range []Filter{ByID(saved.ID), ByNo(4), ByName("charmander")} {
				found, err := repo.FindOne(ctx, filter)
				require.NoError(t, err, filter.Field)
				assert.Equal(t, saved, found)
			}

			byID, err := repo.FindByID(ctx, saved.ID)
			require.NoError(t, err)
			assert.Equal(t, saved, byID)

			for _, filter := range []Filter{
				ByID("00000000-0000-0000-0000-000000000000"),
				ByID("not-a-token"),
				ByNo(5),
				ByName("Charmander"),
			} {
				_, err := repo.FindOne(ctx, filter)
				assert.ErrorIs(t, err, ErrNotFound, filter.Value)
			}

			_, err = repo.FindOne(ctx, Filter{Field: "type", Value: "fire"})
			assert.Error(t, err)
			assert.NotErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestPokemonRepository_Find(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedPokemon(t, repo,
				domain.Pokemon{No: 7, Name: "squirtle"},
				domain.Pokemon{No: 1, Name: "bulbasaur"},
				domain.Pokemon{No: 4, Name: "charmander"},
			)

			all, err := repo.Find(ctx, domain.Page{Limit: 10})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []int64{1, 4, 7}, []int64{all[0].No, all[1].No, all[2].No})

			page, err := repo.Find(ctx, domain.Page{Limit: 1, Offset: 1})
			require.NoError(t, err)
			require.Len(t, page, 1)
			assert.Equal(t, "charmander", page[0].Name)

			beyond, err := repo.Find(ctx, domain.Page{Limit: 10, Offset: 3})
			require.NoError(t, err)
			assert.Empty(t, beyond)
		})
	}
}

func TestPokemonRepository_UpdateOne(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			saved := seedPokemon(t, repo,
				domain.Pokemon{No: 25, Name: "pikachu"},
				domain.Pokemon{No: 26, Name: "raichu"},
			)

			err := repo.UpdateOne(ctx, ByID(saved[0].ID), domain.PokemonPatch{Name: stringPtr("pichu")})
			require.NoError(t, err)

			found, err := repo.FindByID(ctx, saved[0].ID)
			require.NoError(t, err)
			assert.Equal(t, domain.Pokemon{ID: saved[0].ID, No: 25, Name: "pichu"}, found)

			err = repo.UpdateOne(ctx, ByID(saved[0].ID), domain.PokemonPatch{No: int64Ptr(172)})
			require.NoError(t, err)
			_, err = repo.FindOne(ctx, ByNo(172))
			require.NoError(t, err)

			// Colliding with another entity
			err = repo.UpdateOne(ctx, ByID(saved[0].ID), domain.PokemonPatch{No: int64Ptr(26)})
			assert.ErrorIs(t, err, ErrDuplicate)
			var dup *DuplicateKeyError
			require.True(t, errors.As(err, &dup))
			assert.Equal(t, `{"no":26}`, dup.KeyValue())

			err = repo.UpdateOne(ctx, ByID(saved[0].ID), domain.PokemonPatch{Name: stringPtr("raichu")})
			assert.ErrorIs(t, err, ErrDuplicate)

			// Re-writing an entity's own values is not a collision
			err = repo.UpdateOne(ctx, ByID(saved[1].ID), domain.PokemonPatch{No: int64Ptr(26), Name: stringPtr("raichu")})
			assert.NoError(t, err)

			// Matching nothing and empty patches are no-ops
			assert.NoError(t, repo.UpdateOne(ctx, ByNo(999), domain.PokemonPatch{Name: stringPtr("missingno")}))
			assert.NoError(t, repo.UpdateOne(ctx, ByID(saved[1].ID), domain.PokemonPatch{}))

			count, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(2), count)
		})
	}
}

func TestPokemonRepository_DeleteOne(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			saved := seedPokemon(t, repo, domain.Pokemon{No: 133, Name: "eevee"})[0]

			deleted, err := repo.DeleteOne(ctx, ByID("malformed"))
			require.NoError(t, err)
			assert.Equal(t, int64(0), deleted)

			deleted, err = repo.DeleteOne(ctx, ByID(saved.ID))
			require.NoError(t, err)
			assert.Equal(t, int64(1), deleted)

			deleted, err = repo.DeleteOne(ctx, ByID(saved.ID))
			require.NoError(t, err)
			assert.Equal(t, int64(0), deleted)

			_, err = repo.FindByID(ctx, saved.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestPokemonRepository_DeleteAll(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedPokemon(t, repo,
				domain.Pokemon{No: 1, Name: "bulbasaur"},
				domain.Pokemon{No: 2, Name: "ivysaur"},
			)

			deleted, err := repo.DeleteAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(2), deleted)

			count, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(0), count)

			// Freed keys can be reused
			seedPokemon(t, repo, domain.Pokemon{No: 1, Name: "bulbasaur"})
		})
	}
}

func TestPokemonRepository_IsValidID(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			assert.True(t, repo.IsValidID("6fa459ea-ee8a-3ca4-894e-db77e160355e"))
			assert.False(t, repo.IsValidID(""))
			assert.False(t, repo.IsValidID("25"))
			assert.False(t, repo.IsValidID("pikachu"))
			assert.False(t, repo.IsValidID("6fa459eaee8a3ca4894edb77e160355e"))
			assert.False(t, repo.IsValidID("{6fa459ea-ee8a-3ca4-894e-db77e160355e}"))
		})
	}
}

func TestPokemonRepository_PreparedStatementsAreCached(t *testing.T) {
	ds := testutil.SetupTestDBWithMigrations(t)
	repo := NewPokemonRepository(ds).(*pokemonRepositoryImpl)
	defer repo.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.FindOne(ctx, ByNo(int64(i+1)))
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 1, repo.stmts.Size())

	require.NoError(t, repo.Close())
	assert.Equal(t, 0, repo.stmts.Size())
}
