package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jbweber/homelab/pokedex/internal/config"
	"github.com/jbweber/homelab/pokedex/internal/logger"
	"github.com/jbweber/homelab/pokedex/internal/metrics"
	"github.com/jbweber/homelab/pokedex/internal/repository"
	"github.com/jbweber/homelab/pokedex/internal/service"
)

// deps bundles everything a command needs to reach the catalogue
type deps struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	repo    repository.PokemonRepository
	service *service.PokemonService
}

// withDeps loads config, opens the configured store and hands the wired
// service to fn. The store is closed when fn returns.
func withDeps(ctx context.Context, fn func(*deps) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	slog.SetDefault(log)

	repo, closeStore, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("failed to close store", "error", err)
		}
	}()

	m := metrics.New()
	d := &deps{
		cfg:     cfg,
		logger:  log,
		metrics: m,
		repo:    repo,
		service: service.NewPokemonService(repo, service.Options{
			DefaultLimit: cfg.Pagination.DefaultLimit,
			MaxLimit:     cfg.Pagination.MaxLimit,
			Logger:       log,
			Metrics:      m,
		}),
	}
	return fn(d)
}

// openRepository builds the repository for the configured driver
func openRepository(ctx context.Context, cfg *config.Config) (repository.PokemonRepository, func() error, error) {
	if cfg.Database.Driver == config.DriverMemory {
		repo, err := repository.NewMemoryPokemonRepository()
		if err != nil {
			return nil, nil, fmt.Errorf("creating memory store: %w", err)
		}
		return repo, repo.Close, nil
	}

	ds, err := cfg.InitializeDatabase(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing database: %w", err)
	}
	repo := repository.NewPokemonRepository(ds)
	closeAll := func() error {
		repoErr := repo.Close()
		if err := ds.Close(); err != nil {
			return err
		}
		return repoErr
	}
	return repo, closeAll, nil
}
