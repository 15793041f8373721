package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/jbweber/homelab/pokedex/internal/domain"
	"github.com/jbweber/homelab/pokedex/internal/metrics"
	"github.com/jbweber/homelab/pokedex/internal/repository"
)

// Options configures a PokemonService
type Options struct {
	DefaultLimit int // Page size used when a caller gives none
	MaxLimit     int // Upper bound for any page size; 0 means unbounded
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// PokemonService resolves identifiers and maps store outcomes onto the
// service error kinds. It holds no mutable state of its own.
type PokemonService struct {
	repo         repository.PokemonRepository
	defaultLimit int
	maxLimit     int
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// NewPokemonService creates a service over repo
func NewPokemonService(repo repository.PokemonRepository, opts Options) *PokemonService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defaultLimit := opts.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &PokemonService{
		repo:         repo,
		defaultLimit: defaultLimit,
		maxLimit:     opts.MaxLimit,
		logger:       logger.With("component", "pokemon_service"),
		metrics:      opts.Metrics,
	}
}

// Create validates and stores a new Pokemon with a lowercase name
func (s *PokemonService) Create(ctx context.Context, in domain.CreatePokemon) (domain.Pokemon, error) {
	if err := ValidateCreate(in); err != nil {
		return domain.Pokemon{}, err
	}

	created, err := s.repo.Insert(ctx, domain.Pokemon{No: in.No, Name: normalizeName(in.Name)})
	if err != nil {
		return domain.Pokemon{}, s.classify(ctx, "create", err)
	}

	s.logger.InfoContext(ctx, "pokemon created", "id", created.ID, "no", created.No, "name", created.Name)
	return created, nil
}

// List returns a page of Pokemon ordered by number.
// Out-of-range values are clamped rather than rejected.
func (s *PokemonService) List(ctx context.Context, page domain.Page) ([]domain.Pokemon, error) {
	page = s.normalizePage(page)

	pokemon, err := s.repo.Find(ctx, page)
	if err != nil {
		return nil, s.internal(ctx, "list", err)
	}
	return pokemon, nil
}

func (s *PokemonService) normalizePage(page domain.Page) domain.Page {
	if page.Limit <= 0 {
		page.Limit = s.defaultLimit
	}
	if s.maxLimit > 0 && page.Limit > s.maxLimit {
		page.Limit = s.maxLimit
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	return page
}

// Resolve finds a Pokemon by number, identity token or name, in that order.
// A later strategy only runs when the earlier ones matched nothing.
func (s *PokemonService) Resolve(ctx context.Context, identifier string) (domain.Pokemon, error) {
	if no, ok := parseNo(identifier); ok {
		p, found, err := matched(s.repo.FindOne(ctx, repository.ByNo(no)))
		if err != nil {
			return domain.Pokemon{}, s.internal(ctx, "resolve", err)
		}
		if found {
			return p, nil
		}
	}

	if s.repo.IsValidID(identifier) {
		p, found, err := matched(s.repo.FindByID(ctx, identifier))
		if err != nil {
			return domain.Pokemon{}, s.internal(ctx, "resolve", err)
		}
		if found {
			return p, nil
		}
	}

	p, found, err := matched(s.repo.FindOne(ctx, repository.ByName(normalizeName(identifier))))
	if err != nil {
		return domain.Pokemon{}, s.internal(ctx, "resolve", err)
	}
	if !found {
		return domain.Pokemon{}, &NotFoundError{Identifier: identifier}
	}
	return p, nil
}

// Update resolves identifier and applies patch to it.
// The returned Pokemon is the state before the patch.
func (s *PokemonService) Update(ctx context.Context, identifier string, patch domain.PokemonPatch) (domain.Pokemon, error) {
	if err := ValidatePatch(patch); err != nil {
		return domain.Pokemon{}, err
	}
	if patch.Name != nil {
		name := normalizeName(*patch.Name)
		patch.Name = &name
	}

	current, err := s.Resolve(ctx, identifier)
	if err != nil {
		return domain.Pokemon{}, err
	}

	if err := s.repo.UpdateOne(ctx, repository.ByID(current.ID), patch); err != nil {
		return domain.Pokemon{}, s.classify(ctx, "update", err)
	}

	s.logger.InfoContext(ctx, "pokemon updated", "id", current.ID)
	return current, nil
}

// Remove deletes by raw identity token in a single store call
func (s *PokemonService) Remove(ctx context.Context, id string) (domain.Removal, error) {
	deleted, err := s.repo.DeleteOne(ctx, repository.ByID(id))
	if err != nil {
		return domain.Removal{}, s.internal(ctx, "remove", err)
	}
	if deleted == 0 {
		s.metrics.ObserveConflict("remove")
		return domain.Removal{}, &ConflictError{Message: fmt.Sprintf("pokemon with id %q not found", id)}
	}

	s.logger.InfoContext(ctx, "pokemon removed", "id", id)
	return domain.Removal{ID: id}, nil
}

// Seed optionally empties the catalogue and then creates every entry.
// Duplicates are skipped; any other failure stops the run.
func (s *PokemonService) Seed(ctx context.Context, entries []domain.CreatePokemon, reset bool) (domain.SeedResult, error) {
	var result domain.SeedResult

	if reset {
		deleted, err := s.repo.DeleteAll(ctx)
		if err != nil {
			return result, s.internal(ctx, "seed", err)
		}
		result.Deleted = deleted
	}

	for i, entry := range entries {
		_, err := s.Create(ctx, entry)
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, ErrConflict):
			result.Skipped++
		default:
			return result, fmt.Errorf("seed entry %d: %w", i, err)
		}
	}

	s.logger.InfoContext(ctx, "catalogue seeded", "deleted", result.Deleted, "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

// matched reports the outcome of one resolve strategy, treating ErrNotFound as a miss
func matched(p domain.Pokemon, err error) (domain.Pokemon, bool, error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Pokemon{}, false, nil
		}
		return domain.Pokemon{}, false, err
	}
	return p, true, nil
}

// classify maps a failed write onto ConflictError or InternalError
func (s *PokemonService) classify(ctx context.Context, op string, err error) error {
	var dup *repository.DuplicateKeyError
	if errors.As(err, &dup) {
		s.metrics.ObserveConflict(op)
		return &ConflictError{Message: fmt.Sprintf("pokemon exists in db %s", dup.KeyValue())}
	}
	return s.internal(ctx, op, err)
}

func (s *PokemonService) internal(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "store operation failed", "op", op, "error", err)
	return &InternalError{Op: op, cause: err}
}

// parseNo reports whether identifier reads as a number and, if that number
// can be a catalogue number, returns it
func parseNo(identifier string) (int64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(identifier), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
