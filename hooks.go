package venuemap

import (
	"reflect"
	"sync"

	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/venues"
	"github.com/agentstation/venuemap/pkg/viewsync"
)

// Hook function types for store events
type (
	// VenueAddedHook is called when a venue enters the collection
	VenueAddedHook func(venue venues.Venue)

	// VenueUpdatedHook is called when a venue in the collection changes
	VenueUpdatedHook func(old, new venues.Venue)

	// VenueRemovedHook is called when a venue leaves the collection
	VenueRemovedHook func(venue venues.Venue)

	// RecenterHook is called for every fly-to command sent to the map
	RecenterHook func(cmd viewsync.Command)

	// CenterChangedHook is called whenever the center of interest moves
	CenterChangedHook func(center venues.Coordinate)

	// LoadingHook is called when the loading flag flips
	LoadingHook func(loading bool)

	// RatesUpdatedHook is called when a new rate table replaces the old one
	RatesUpdatedHook func(table *currency.Table)
)

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*client)(nil)

// Hooks provides event callback registration.
type Hooks interface {
	OnVenueAdded(fn VenueAddedHook)
	OnVenueUpdated(fn VenueUpdatedHook)
	OnVenueRemoved(fn VenueRemovedHook)
	OnRecenter(fn RecenterHook)
	OnCenterChanged(fn CenterChangedHook)
	OnLoading(fn LoadingHook)
	OnRatesUpdated(fn RatesUpdatedHook)
}

func (c *client) OnVenueAdded(fn VenueAddedHook)       { c.hooks.OnVenueAdded(fn) }
func (c *client) OnVenueUpdated(fn VenueUpdatedHook)   { c.hooks.OnVenueUpdated(fn) }
func (c *client) OnVenueRemoved(fn VenueRemovedHook)   { c.hooks.OnVenueRemoved(fn) }
func (c *client) OnRecenter(fn RecenterHook)           { c.hooks.OnRecenter(fn) }
func (c *client) OnCenterChanged(fn CenterChangedHook) { c.hooks.OnCenterChanged(fn) }
func (c *client) OnLoading(fn LoadingHook)             { c.hooks.OnLoading(fn) }
func (c *client) OnRatesUpdated(fn RatesUpdatedHook)   { c.hooks.OnRatesUpdated(fn) }

// hooks manages event callbacks. Callbacks run synchronously on the
// goroutine that made the change, after the store lock is released.
type hooks struct {
	mu              sync.RWMutex
	onVenueAdded    []VenueAddedHook
	onVenueUpdated  []VenueUpdatedHook
	onVenueRemoved  []VenueRemovedHook
	onRecenter      []RecenterHook
	onCenterChanged []CenterChangedHook
	onLoading       []LoadingHook
	onRatesUpdated  []RatesUpdatedHook
}

func newHooks() *hooks {
	return &hooks{}
}

func (h *hooks) OnVenueAdded(fn VenueAddedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onVenueAdded = append(h.onVenueAdded, fn)
}

func (h *hooks) OnVenueUpdated(fn VenueUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onVenueUpdated = append(h.onVenueUpdated, fn)
}

func (h *hooks) OnVenueRemoved(fn VenueRemovedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onVenueRemoved = append(h.onVenueRemoved, fn)
}

func (h *hooks) OnRecenter(fn RecenterHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRecenter = append(h.onRecenter, fn)
}

func (h *hooks) OnCenterChanged(fn CenterChangedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCenterChanged = append(h.onCenterChanged, fn)
}

func (h *hooks) OnLoading(fn LoadingHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onLoading = append(h.onLoading, fn)
}

func (h *hooks) OnRatesUpdated(fn RatesUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRatesUpdated = append(h.onRatesUpdated, fn)
}

// triggerCollectionUpdate diffs two collections by id and fires venue hooks
func (h *hooks) triggerCollectionUpdate(old, updated []venues.Venue) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	oldByID := make(map[string]venues.Venue, len(old))
	for _, v := range old {
		oldByID[v.ID] = v
	}
	newByID := make(map[string]struct{}, len(updated))
	for _, v := range updated {
		newByID[v.ID] = struct{}{}
		prev, exists := oldByID[v.ID]
		switch {
		case !exists:
			for _, hook := range h.onVenueAdded {
				hook(v.Clone())
			}
		case !reflect.DeepEqual(prev, v):
			for _, hook := range h.onVenueUpdated {
				hook(prev.Clone(), v.Clone())
			}
		}
	}
	for _, v := range old {
		if _, exists := newByID[v.ID]; !exists {
			for _, hook := range h.onVenueRemoved {
				hook(v.Clone())
			}
		}
	}
}

func (h *hooks) triggerView(outcome viewsync.Outcome) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if outcome.Changed {
		for _, hook := range h.onCenterChanged {
			hook(outcome.Center)
		}
	}
	if outcome.Command != nil {
		for _, hook := range h.onRecenter {
			hook(*outcome.Command)
		}
	}
}

func (h *hooks) triggerLoading(loading bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onLoading {
		hook(loading)
	}
}

func (h *hooks) triggerRates(table *currency.Table) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onRatesUpdated {
		hook(table.Clone())
	}
}
