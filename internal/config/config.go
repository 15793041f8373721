package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/homelab/pokedex/internal/datastore"
	"github.com/jbweber/homelab/pokedex/internal/migrations"
)

// DriverMemory keeps the catalogue in process memory instead of a database
const DriverMemory = "memory"

// Config holds all configuration for the pokedex service
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Pagination PaginationConfig `yaml:"pagination"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port      string          `yaml:"port"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures per-client request limits; RPS 0 disables limiting
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// DatabaseConfig selects the store. For sqlite the DSN is a file path.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// PaginationConfig bounds list pages
type PaginationConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// LogConfig configures the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			RateLimit: RateLimitConfig{
				RPS:   20,
				Burst: 40,
			},
		},
		Database: DatabaseConfig{
			Driver: datastore.DriverSQLite,
			DSN:    "~/pokedex/data/pokedex.db",
		},
		Pagination: PaginationConfig{
			DefaultLimit: 10,
			MaxLimit:     100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path over the defaults and then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		data, err := os.ReadFile(cfg.expandPath(path))
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets POKEDEX_* variables win over the file
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("POKEDEX_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("POKEDEX_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("POKEDEX_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("POKEDEX_DEFAULT_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POKEDEX_DEFAULT_LIMIT: %w", err)
		}
		c.Pagination.DefaultLimit = n
	}
	if v := os.Getenv("POKEDEX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks the values the rest of the service relies on
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	switch c.Database.Driver {
	case DriverMemory:
	case datastore.DriverSQLite, datastore.DriverMySQL, datastore.DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Pagination.DefaultLimit < 1 {
		errs = append(errs, errors.New("pagination.default_limit must be at least 1"))
	}
	if c.Pagination.MaxLimit < c.Pagination.DefaultLimit {
		errs = append(errs, errors.New("pagination.max_limit must not be below default_limit"))
	}
	if c.Server.RateLimit.RPS < 0 || c.Server.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("server.rate_limit values must not be negative"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

// InitializeDatabase opens the configured SQL store and runs migrations
func (c *Config) InitializeDatabase(ctx context.Context) (*datastore.Datastore, error) {
	ds, err := c.OpenDatabase(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.runMigrations(ctx, ds); err != nil {
		ds.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return ds, nil
}

// OpenDatabase opens and tunes the configured SQL store without touching its schema
func (c *Config) OpenDatabase(ctx context.Context) (*datastore.Datastore, error) {
	if c.Database.Driver == DriverMemory {
		return nil, errors.New("the memory driver has no database to initialize")
	}

	dsn := c.Database.DSN
	if c.Database.Driver == datastore.DriverSQLite {
		dsn = c.expandPath(dsn)

		// Ensure database directory exists
		if !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	ds, err := datastore.Open(ctx, c.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	OptimizeDatabaseConnection(ds.DB)

	if ds.Dialect.Name == datastore.DriverSQLite {
		if err := ApplyPragmaOptimizations(ctx, ds.DB); err != nil {
			ds.Close()
			return nil, fmt.Errorf("failed to apply performance optimizations: %w", err)
		}
	}

	return ds, nil
}

// expandPath expands ~ to home directory
func (c *Config) expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Return original path if we can't get home dir
		return path
	}

	return filepath.Join(homeDir, path[2:])
}

// runMigrations runs all database migrations
func (c *Config) runMigrations(ctx context.Context, ds *datastore.Datastore) error {
	_, err := migrations.Migrate(ctx, ds)
	return err
}
