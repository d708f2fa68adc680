// Package app provides the application context and dependency management
// for the venuemap CLI. It centralizes configuration, source wiring and
// lifecycle management.
package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/venuemap"
	"github.com/agentstation/venuemap/internal/appcontext"
	"github.com/agentstation/venuemap/internal/auth"
	"github.com/agentstation/venuemap/internal/cache/redis"
	"github.com/agentstation/venuemap/internal/sources/elastic"
	"github.com/agentstation/venuemap/internal/sources/erapi"
	"github.com/agentstation/venuemap/internal/sources/memory"
	"github.com/agentstation/venuemap/internal/sources/overpass"
	"github.com/agentstation/venuemap/internal/sources/postgres"
	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/sources"
	"github.com/agentstation/venuemap/pkg/state"
)

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// App represents the venuemap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// client and the connections it holds (lazy-initialized, singleton)
	mu      sync.RWMutex
	vm      venuemap.Client
	store   *state.FileStore
	closers []sources.Closer
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Auth returns the operator authentication checker.
func (a *App) Auth() *auth.Checker {
	return auth.NewChecker(a.config.AuthSigningKey, a.config.AuthUsers)
}

// StateStore returns the persisted state file.
func (a *App) StateStore() (*state.FileStore, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateStoreLocked()
}

func (a *App) stateStoreLocked() (*state.FileStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := state.NewFileStore(a.config.StatePath)
	if err != nil {
		return nil, errors.NewConfigError("state", "invalid state path", err)
	}
	a.store = store
	return store, nil
}

// VenueMap returns the client, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) VenueMap() (venuemap.Client, error) {
	a.mu.RLock()
	if a.vm != nil {
		vm := a.vm
		a.mu.RUnlock()
		return vm, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.vm != nil {
		return a.vm, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.SourceFetchTimeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, a.logger)

	opts, err := a.buildClientOptions(ctx)
	if err != nil {
		a.closeAll()
		return nil, err
	}
	vm, err := venuemap.New(opts...)
	if err != nil {
		a.closeAll()
		return nil, errors.WrapResource("create", "venuemap", "", err)
	}

	a.vm = vm
	return vm, nil
}

// Shutdown stops background work, flushes state and closes connections.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var err error
	if a.vm != nil {
		if err = a.vm.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close client during shutdown")
		}
	}
	a.closeAll()
	return err
}

func (a *App) closeAll() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close source")
		}
	}
	a.closers = nil
}

// buildClientOptions constructs client options from the app configuration.
func (a *App) buildClientOptions(ctx context.Context) ([]venuemap.Option, error) {
	cfg := a.config

	curated, err := a.curatedSource(ctx)
	if err != nil {
		return nil, err
	}
	feed, err := a.feedSource(ctx)
	if err != nil {
		return nil, err
	}
	store, err := a.stateStoreLocked()
	if err != nil {
		return nil, err
	}

	hc := &http.Client{Timeout: constants.DefaultHTTPTimeout}
	rateOpts := []erapi.Option{erapi.WithURL(cfg.RatesURL), erapi.WithHTTPClient(hc)}
	if cfg.RatesAPIKey != "" {
		rateOpts = append(rateOpts, erapi.WithAPIKey(cfg.RatesAPIKey))
	}

	opts := []venuemap.Option{
		venuemap.WithCurated(curated),
		venuemap.WithRates(erapi.New(rateOpts...)),
		venuemap.WithStateStore(store),
		venuemap.WithVenueCache(cfg.CacheVenues),
		venuemap.WithBaseCurrency(cfg.BaseCurrency),
		venuemap.WithSearchRadius(cfg.SearchRadius),
		venuemap.WithMergeTolerance(cfg.MergeTolerance),
		venuemap.WithViewThreshold(cfg.ViewThreshold),
		venuemap.WithAutoRefreshInterval(cfg.AutoRefreshInterval),
	}
	if feed != nil {
		opts = append(opts, venuemap.WithFeed(feed))
	}
	return opts, nil
}

func (a *App) curatedSource(ctx context.Context) (sources.Curated, error) {
	switch a.config.Curated {
	case CuratedPostgres:
		if a.config.PostgresDSN == "" {
			return nil, errors.NewConfigError("curated", "postgres_dsn is required for the postgres curated source", nil)
		}
		store, err := postgres.Connect(ctx, a.config.PostgresDSN)
		if err != nil {
			return nil, errors.NewConfigError("curated", "could not connect to postgres", err)
		}
		a.closers = append(a.closers, store)
		if err := store.Migrate(ctx); err != nil {
			return nil, errors.WrapResource("migrate", "schema", "", err)
		}
		return store, nil
	case CuratedMemory, "":
		a.logger.Debug().Msg("Using in-memory curated source with demo venues")
		return memory.New(memory.WithDemoVenues()), nil
	default:
		return nil, errors.NewConfigError("curated", "unknown curated source "+a.config.Curated+" (memory, postgres)", nil)
	}
}

func (a *App) feedSource(ctx context.Context) (sources.Feed, error) {
	hc := &http.Client{Timeout: constants.DefaultHTTPTimeout}

	var feed sources.Feed
	switch a.config.Feed {
	case FeedOverpass, "":
		feed = overpass.New(overpass.WithURL(a.config.OverpassURL), overpass.WithHTTPClient(hc))
	case FeedElastic:
		if a.config.ElasticURL == "" {
			return nil, errors.NewConfigError("feed", "elastic_url is required for the elastic feed", nil)
		}
		src, err := elastic.New(a.config.ElasticURL, hc, elastic.WithIndex(a.config.ElasticIndex))
		if err != nil {
			return nil, errors.NewConfigError("feed", "could not create elasticsearch client", err)
		}
		feed = src
	case FeedNone:
		return nil, nil
	default:
		return nil, errors.NewConfigError("feed", "unknown feed "+a.config.Feed+" (overpass, elastic, none)", nil)
	}

	if a.config.RedisAddr == "" {
		return feed, nil
	}
	cached, err := redis.Dial(ctx, a.config.RedisAddr, feed, redis.WithTTL(a.config.FeedCacheTTL))
	if err != nil {
		// the cache is an optimization; run uncached
		a.logger.Warn().Err(err).Str("addr", a.config.RedisAddr).Msg("Redis unavailable, feed results will not be cached")
		return feed, nil
	}
	a.closers = append(a.closers, cached)
	return cached, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithVenueMap sets a custom client (useful for testing).
func WithVenueMap(vm venuemap.Client) Option {
	return func(a *App) error {
		a.vm = vm
		return nil
	}
}
