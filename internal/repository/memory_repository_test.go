package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/pokedex/internal/domain"
)

func TestMemoryPokemonRepository_ConcurrentInsertSameNo(t *testing.T) {
	repo, err := NewMemoryPokemonRepository()
	require.NoError(t, err)
	ctx := context.Background()

	const writers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Insert(ctx, domain.Pokemon{No: 151, Name: fmt.Sprintf("mew-%d", i)})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrDuplicate):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, writers-1, conflicts)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryPokemonRepository_ReturnsCopies(t *testing.T) {
	repo, err := NewMemoryPokemonRepository()
	require.NoError(t, err)
	ctx := context.Background()

	saved, err := repo.Insert(ctx, domain.Pokemon{No: 1, Name: "bulbasaur"})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	found.Name = "mutated"

	again, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "bulbasaur", again.Name)
}

func TestMemoryPokemonRepository_UpdateKeepsIndexesConsistent(t *testing.T) {
	repo, err := NewMemoryPokemonRepository()
	require.NoError(t, err)
	ctx := context.Background()

	saved, err := repo.Insert(ctx, domain.Pokemon{No: 25, Name: "pikachu"})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateOne(ctx, ByNo(25), domain.PokemonPatch{No: int64Ptr(26), Name: stringPtr("raichu")}))

	_, err = repo.FindOne(ctx, ByNo(25))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FindOne(ctx, ByName("pikachu"))
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := repo.FindOne(ctx, ByName("raichu"))
	require.NoError(t, err)
	assert.Equal(t, domain.Pokemon{ID: saved.ID, No: 26, Name: "raichu"}, found)

	// The old number is free again
	_, err = repo.Insert(ctx, domain.Pokemon{No: 25, Name: "pikachu"})
	assert.NoError(t, err)
}
