package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jbweber/homelab/pokedex/internal/domain"
)

// PokemonStore defines the service interface for pokemon handlers
type PokemonStore interface {
	Create(ctx context.Context, in domain.CreatePokemon) (domain.Pokemon, error)
	List(ctx context.Context, page domain.Page) ([]domain.Pokemon, error)
	Resolve(ctx context.Context, identifier string) (domain.Pokemon, error)
	Update(ctx context.Context, identifier string, patch domain.PokemonPatch) (domain.Pokemon, error)
	Remove(ctx context.Context, id string) (domain.Removal, error)
	Seed(ctx context.Context, entries []domain.CreatePokemon, reset bool) (domain.SeedResult, error)
}

// Pokemon groups pokemon handlers for testability
type Pokemon struct {
	store  PokemonStore
	logger *slog.Logger
}

// NewPokemon creates a new Pokemon handler group
func NewPokemon(store PokemonStore, logger *slog.Logger) *Pokemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pokemon{store: store, logger: logger}
}

// CreatePokemonRequest is the body of POST /api/v2/pokemon
type CreatePokemonRequest struct {
	No   int64  `json:"no"`
	Name string `json:"name"`
}

// UpdatePokemonRequest is the body of PATCH /api/v2/pokemon/{term}; absent fields are left unchanged
type UpdatePokemonRequest struct {
	No   *int64  `json:"no,omitempty"`
	Name *string `json:"name,omitempty"`
}

// PokemonResponse is the JSON representation of a Pokemon
type PokemonResponse struct {
	ID   string `json:"id"`
	No   int64  `json:"no"`
	Name string `json:"name"`
}

// RemovalResponse confirms a deletion
type RemovalResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// SeedRequest is the body of POST /api/v2/seed
type SeedRequest struct {
	Entries []CreatePokemonRequest `json:"entries"`
	Reset   bool                   `json:"reset"`
}

// SeedResponse reports what a seed run changed
type SeedResponse struct {
	Deleted int64 `json:"deleted"`
	Created int   `json:"created"`
	Skipped int   `json:"skipped"`
}

func toPokemonResponse(p domain.Pokemon) PokemonResponse {
	return PokemonResponse{ID: p.ID, No: p.No, Name: p.Name}
}

// CreatePokemonHandler handles POST /api/v2/pokemon
func (p *Pokemon) CreatePokemonHandler(w http.ResponseWriter, r *http.Request) {
	var req CreatePokemonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, p.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}

	created, err := p.store.Create(r.Context(), domain.CreatePokemon{No: req.No, Name: req.Name})
	if err != nil {
		writeServiceError(w, p.logger, err)
		return
	}

	writeJSON(w, p.logger, http.StatusCreated, toPokemonResponse(created))
}

// ListPokemonHandler handles GET /api/v2/pokemon?limit=&offset=
func (p *Pokemon) ListPokemonHandler(w http.ResponseWriter, r *http.Request) {
	var page domain.Page
	query := r.URL.Query()

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, p.logger, http.StatusBadRequest, "limit must be an integer")
			return
		}
		page.Limit = limit
	}
	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, p.logger, http.StatusBadRequest, "offset must be an integer")
			return
		}
		page.Offset = offset
	}

	pokemon, err := p.store.List(r.Context(), page)
	if err != nil {
		writeServiceError(w, p.logger, err)
		return
	}

	response := make([]PokemonResponse, len(pokemon))
	for i, item := range pokemon {
		response[i] = toPokemonResponse(item)
	}
	writeJSON(w, p.logger, http.StatusOK, response)
}

// GetPokemonHandler handles GET /api/v2/pokemon/{term}.
// The term may be a catalogue number, an id or a name.
func (p *Pokemon) GetPokemonHandler(w http.ResponseWriter, r *http.Request) {
	found, err := p.store.Resolve(r.Context(), chi.URLParam(r, "term"))
	if err != nil {
		writeServiceError(w, p.logger, err)
		return
	}
	writeJSON(w, p.logger, http.StatusOK, toPokemonResponse(found))
}

// UpdatePokemonHandler handles PATCH /api/v2/pokemon/{term}.
//
// Request: JSON body with optional fields "no" and "name".
// Response: 200 OK with the entity as it was before the update, or error JSON.
func (p *Pokemon) UpdatePokemonHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdatePokemonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, p.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}

	previous, err := p.store.Update(r.Context(), chi.URLParam(r, "term"), domain.PokemonPatch{No: req.No, Name: req.Name})
	if err != nil {
		writeServiceError(w, p.logger, err)
		return
	}
	writeJSON(w, p.logger, http.StatusOK, toPokemonResponse(previous))
}

// DeletePokemonHandler handles DELETE /api/v2/pokemon/{id}.
// The path segment shares the {term} key with the other item routes but only ids are accepted.
func (p *Pokemon) DeletePokemonHandler(w http.ResponseWriter, r *http.Request) {
	removal, err := p.store.Remove(r.Context(), chi.URLParam(r, "term"))
	if err != nil {
		writeServiceError(w, p.logger, err)
		return
	}
	writeJSON(w, p.logger, http.StatusOK, RemovalResponse{ID: removal.ID, Deleted: true})
}

// SeedHandler handles POST /api/v2/seed
func (p *Pokemon) SeedHandler(w http.ResponseWriter, r *http.Request) {
	var req SeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, p.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}

	entries := make([]domain.CreatePokemon, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = domain.CreatePokemon{No: e.No, Name: e.Name}
	}

	result, err := p.store.Seed(r.Context(), entries, req.Reset)
	if err != nil {
		writeServiceError(w, p.logger, err)
		return
	}
	writeJSON(w, p.logger, http.StatusOK, SeedResponse{
		Deleted: result.Deleted,
		Created: result.Created,
		Skipped: result.Skipped,
	})
}
