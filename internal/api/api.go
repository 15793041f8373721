package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jbweber/homelab/pokedex/internal/metrics"
	"github.com/jbweber/homelab/pokedex/internal/ratelimiter"
)

// Options carries the optional collaborators of the API. Zero values are valid.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Limiter *ratelimiter.KeyLimiter
}

// API holds the handler groups and their shared middleware dependencies
type API struct {
	store   PokemonStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	limiter *ratelimiter.KeyLimiter
}

// NewAPI creates a new API over store
func NewAPI(store PokemonStore, opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		store:   store,
		logger:  logger.With("component", "api"),
		metrics: opts.Metrics,
		limiter: opts.Limiter,
	}
}

// Router builds a chi router with the standard middleware stack and every route registered
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(peerAddr)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(a.logger))
	r.Use(middleware.Recoverer)
	r.Use(instrument(a.metrics))

	a.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all API endpoints to the given chi router.
func (a *API) RegisterRoutes(r chi.Router) {
	// Health check endpoint
	r.Get("/", a.healthHandler)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	// Pokemon endpoints group
	pokemon := NewPokemon(a.store, a.logger)
	r.Route("/api/v2", func(r chi.Router) {
		r.Use(rateLimit(a.limiter, a.metrics, a.logger))

		r.Route("/pokemon", func(r chi.Router) {
			r.Get("/", pokemon.ListPokemonHandler)
			r.Post("/", pokemon.CreatePokemonHandler)
			r.Get("/{term}", pokemon.GetPokemonHandler)
			r.Patch("/{term}", pokemon.UpdatePokemonHandler)
			r.Delete("/{term}", pokemon.DeletePokemonHandler)
		})
		r.Post("/seed", pokemon.SeedHandler)
	})
}

// healthHandler handles GET /
func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.logger, http.StatusOK, map[string]string{"status": "ok", "service": "pokedex"})
}
