// Package handlers provides HTTP request handlers for the venue map API.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/venuemap"
	"github.com/agentstation/venuemap/internal/auth"
	"github.com/agentstation/venuemap/internal/server/cache"
	"github.com/agentstation/venuemap/internal/server/response"
	ws "github.com/agentstation/venuemap/internal/server/websocket"
	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	vm       venuemap.Client
	checker  *auth.Checker
	cache    *cache.Cache
	wsHub    *ws.Hub
	upgrader websocket.Upgrader
	logger   *zerolog.Logger
	info     BuildInfo
}

// BuildInfo is reported by the health endpoint.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// New creates a new Handlers instance.
func New(
	vm venuemap.Client,
	checker *auth.Checker,
	cache *cache.Cache,
	wsHub *ws.Hub,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
	info BuildInfo,
) *Handlers {
	return &Handlers{
		vm:       vm,
		checker:  checker,
		cache:    cache,
		wsHub:    wsHub,
		upgrader: upgrader,
		logger:   logger,
		info:     info,
	}
}

// cached serves key from the response cache, computing it with fn on a miss.
func (h *Handlers) cached(w http.ResponseWriter, key string, fn func() (any, error)) {
	if data, ok := h.cache.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		response.OK(w, data)
		return
	}
	data, err := fn()
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	h.cache.Set(key, data)
	w.Header().Set("X-Cache", "MISS")
	response.OK(w, data)
}

// decodeBody decodes a JSON request body into v. An empty body leaves v
// untouched when optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	body := http.MaxBytesReader(w, r.Body, constants.MaxRequestBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return errors.NewValidationError("body", "", "request body is required")
		}
		return errors.NewValidationError("body", "", err.Error())
	}
	return nil
}
