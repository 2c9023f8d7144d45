package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/bsi-games/bsi/internal/dependencies/clock"
	"github.com/bsi-games/bsi/internal/stub/api"
	"github.com/bsi-games/bsi/internal/stub/hub"
	"github.com/bsi-games/bsi/internal/stub/services/auth"
	"github.com/bsi-games/bsi/internal/stub/services/games"
	"github.com/bsi-games/bsi/internal/stub/services/roster"
	"github.com/bsi-games/bsi/internal/stub/storage"
	"github.com/bsi-games/bsi/internal/stub/storage/memory"
	redisstorage "github.com/bsi-games/bsi/internal/stub/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired stand-in service components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Services
	AuthService    *auth.Service
	GameController *games.Controller
	RosterService  *roster.Service
	Hub            *hub.Hub

	logger *slog.Logger
	closer io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired.
// The push hub is running when New returns; Close stops it.
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	var closer io.Closer
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closer = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	app := newWithDependencies(store, clock.New(), cfg.AuthConfig, logger)
	app.closer = closer
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, authCfg auth.Config, logger *slog.Logger) *App {
	h := hub.New(logger)
	go h.Run()

	return &App{
		Storage:        store,
		Clock:          clk,
		AuthService:    auth.New(store, clk, authCfg),
		GameController: games.NewController(store, clk),
		RosterService:  roster.New(store, clk),
		Hub:            h,
		logger:         logger,
	}
}

// Handler builds the HTTP handler serving every stand-in endpoint
func (a *App) Handler() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:         a.logger,
		AuthService:    a.AuthService,
		GameController: a.GameController,
		RosterService:  a.RosterService,
		Hub:            a.Hub,
	})
}

// Close stops the push hub and releases storage connections
func (a *App) Close() error {
	a.Hub.Close()
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
