package server

import (
	"net/http"
	"strings"

	"github.com/agentstation/venuemap/internal/server/handlers"
	"github.com/agentstation/venuemap/internal/server/middleware"
	"github.com/agentstation/venuemap/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.vm,
		s.checker,
		s.cache,
		s.wsHub,
		s.upgrader,
		s.logger,
		handlers.BuildInfo{Version: s.app.Version(), Commit: s.app.Commit()},
	)

	s.registerRoutes(mux, h)
	return s.applyMiddleware(mux)
}

// methods dispatches on the request method, answering 405 otherwise.
func methods(routes map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fn, ok := routes[r.Method]; ok {
			fn(w, r)
			return
		}
		response.MethodNotAllowed(w, r.Method)
	}
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix
	operator := middleware.RequireAuth(s.checker, s.logger)

	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc(prefix+"/health", h.HandleHealth)

	mux.HandleFunc(prefix+"/venues", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.HandleListVenues,
	}))

	// venue ids may contain slashes (osm:node/1), so the action suffix is
	// matched from the end of the path
	submit := func(id string) http.Handler {
		return operator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.HandleSubmitPrice(w, r, id)
		}))
	}
	mux.HandleFunc(prefix+"/venues/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, prefix+"/venues/")
		switch {
		case strings.HasSuffix(rest, "/focus"):
			id := strings.TrimSuffix(rest, "/focus")
			if r.Method != http.MethodPost {
				response.MethodNotAllowed(w, r.Method)
				return
			}
			h.HandleFocusVenue(w, r, id)
		case strings.HasSuffix(rest, "/prices"):
			id := strings.TrimSuffix(rest, "/prices")
			if r.Method != http.MethodPost {
				response.MethodNotAllowed(w, r.Method)
				return
			}
			submit(id).ServeHTTP(w, r)
		case rest == "":
			response.NotFound(w, "Venue ID required", "")
		case r.Method == http.MethodGet:
			h.HandleGetVenue(w, r, rest)
		default:
			response.MethodNotAllowed(w, r.Method)
		}
	})

	mux.HandleFunc(prefix+"/refresh", methods(map[string]http.HandlerFunc{
		http.MethodPost: h.HandleRefresh,
	}))
	mux.HandleFunc(prefix+"/rates", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.HandleRates,
	}))
	mux.HandleFunc(prefix+"/rates/refresh", methods(map[string]http.HandlerFunc{
		http.MethodPost: h.HandleRefreshRates,
	}))
	mux.HandleFunc(prefix+"/convert", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.HandleConvert,
	}))

	mux.HandleFunc(prefix+"/view/center", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.HandleGetCenter,
		http.MethodPut: h.HandleSetCenter,
	}))
	mux.HandleFunc(prefix+"/view/pan", methods(map[string]http.HandlerFunc{
		http.MethodPost: h.HandlePan,
	}))

	mux.HandleFunc(prefix+"/preferences", methods(map[string]http.HandlerFunc{
		http.MethodGet:   h.HandleGetPreferences,
		http.MethodPatch: h.HandlePatchPreferences,
	}))

	mux.HandleFunc(prefix+"/login", methods(map[string]http.HandlerFunc{
		http.MethodPost: h.HandleLogin,
	}))

	mux.HandleFunc(prefix+"/updates/ws", h.HandleWebSocket)
}

// applyMiddleware wraps handler with middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	if s.limiter != nil {
		handler = middleware.RateLimit(s.limiter)(handler)
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		} else {
			corsConfig.AllowAll = true
		}
		handler = middleware.CORS(corsConfig)(handler)
	}

	// logging and recovery are always on
	return middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	)(handler)
}
