// Package server provides the HTTP API and WebSocket push channel for the
// venue map UI.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/venuemap"
	"github.com/agentstation/venuemap/internal/appcontext"
	"github.com/agentstation/venuemap/internal/auth"
	"github.com/agentstation/venuemap/internal/server/cache"
	"github.com/agentstation/venuemap/internal/server/events"
	"github.com/agentstation/venuemap/internal/server/events/adapters"
	"github.com/agentstation/venuemap/internal/server/middleware"
	ws "github.com/agentstation/venuemap/internal/server/websocket"
	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/venues"
	"github.com/agentstation/venuemap/pkg/viewsync"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	app       appcontext.Interface
	vm        venuemap.Client
	checker   *auth.Checker
	cache     *cache.Cache
	broker    *events.Broker
	wsHub     *ws.Hub
	limiter   *middleware.RateLimiter
	upgrader  websocket.Upgrader
	logger    *zerolog.Logger
	config    Config
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	started   bool
	startTime time.Time
}

// New creates a new server instance with the given configuration.
func New(app appcontext.Interface, cfg Config) (*Server, error) {
	logger := app.Logger()

	vm, err := app.VenueMap()
	if err != nil {
		return nil, err
	}

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = constants.CacheTTL
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/api/v1"
	}

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	logger.Debug().Msg("WebSocket transport subscribed to event broker")

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		app:     app,
		vm:      vm,
		checker: app.Auth(),
		cache:   cache.New(cfg.CacheTTL, constants.CacheCleanupInterval),
		broker:  broker,
		wsHub:   wsHub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		startTime: time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	s.connectHooks()
	return s, nil
}

// connectHooks forwards store hooks to the event broker. Every change also
// invalidates the read cache.
func (s *Server) connectHooks() {
	s.vm.OnVenueAdded(func(v venues.Venue) {
		s.cache.Clear()
		s.broker.Publish(events.VenueAdded, map[string]any{"venue": v})
	})

	s.vm.OnVenueUpdated(func(old, updated venues.Venue) {
		s.cache.Clear()
		s.broker.Publish(events.VenueUpdated, map[string]any{
			"old_venue": old,
			"new_venue": updated,
		})
	})

	s.vm.OnVenueRemoved(func(v venues.Venue) {
		s.cache.Clear()
		s.broker.Publish(events.VenueRemoved, map[string]any{"venue": v})
	})

	s.vm.OnRecenter(func(cmd viewsync.Command) {
		s.broker.Publish(events.Recenter, cmd)
		s.logger.Debug().
			Uint64("seq", cmd.Seq).
			Str("target", cmd.Target.String()).
			Str("reason", cmd.Reason).
			Msg("Recenter command published")
	})

	s.vm.OnCenterChanged(func(c venues.Coordinate) {
		s.broker.Publish(events.CenterChanged, map[string]any{"center": c})
	})

	s.vm.OnLoading(func(loading bool) {
		s.cache.Clear()
		s.broker.Publish(events.Loading, map[string]any{"loading": loading})
	})

	s.vm.OnRatesUpdated(func(t *currency.Table) {
		s.cache.Clear()
		s.broker.Publish(events.RatesUpdated, t)
	})

	s.logger.Debug().Msg("Store hooks connected to event broker")
}

// Start starts background services (broker, WebSocket hub, rate limiter).
func (s *Server) Start() {
	s.started = true
	go s.wsHub.Run(s.ctx)
	if s.limiter != nil {
		go s.limiter.Run(s.ctx)
	}
	go func() {
		s.broker.Run(s.ctx)
		close(s.done)
	}()
	s.logger.Debug().Msg("Background services started")
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops background services, waiting for the broker to drain
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()
	if !s.started {
		return nil
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// Cache returns the server's cache instance.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// Broker returns the event broker.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
