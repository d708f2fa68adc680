// Package venuemap provides the application state store for a map-based
// directory of venues with user-submitted prices, layered over a public
// points-of-interest feed.
//
// The Client owns every piece of mutable state: the merged venue collection,
// the view center, the exchange-rate table, preferences and the operator
// session. It fetches the curated and feed sources concurrently, merges them
// through the reconciler, mediates map recentering through the view
// synchronizer and persists a restricted subset of state across restarts.
//
// Example usage:
//
//	vm, err := venuemap.New(
//	    venuemap.WithCurated(memory.New(memory.WithDemoVenues())),
//	    venuemap.WithFeed(overpass.New()),
//	    venuemap.WithRates(erapi.New()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer vm.Close()
//
//	vm.OnRecenter(func(cmd viewsync.Command) {
//	    fmt.Println("fly to", cmd.Target)
//	})
//
//	if _, err := vm.RefreshVenues(ctx, 41.0082, 28.9784); err != nil {
//	    log.Fatal(err)
//	}
//	for _, v := range vm.Venues(filter.Criteria{Sort: filter.SortPrice}) {
//	    fmt.Println(v.Name)
//	}
package venuemap

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/enhancer"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/filter"
	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/reconciler"
	"github.com/agentstation/venuemap/pkg/state"
	"github.com/agentstation/venuemap/pkg/venues"
	"github.com/agentstation/venuemap/pkg/viewsync"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client manages the venue collection, view center, rates and preferences.
type Client interface {
	// Directory provides read access to venues and venue-level commands
	Directory

	// Updater handles venue and rate refreshes
	Updater

	// Exchange provides rate table access and conversion
	Exchange

	// Navigator mediates the map's center of interest
	Navigator

	// Settings holds preferences and the operator session
	Settings

	// Persistence handles state persistence
	Persistence

	// AutoRefresher controls the background refresh
	AutoRefresher

	// Hooks provides access to event callback registration
	Hooks

	// Snapshot returns a deep copy of the whole state
	Snapshot() Snapshot

	// Close stops background work and flushes state
	Close() error
}

// Snapshot is a point-in-time copy of the store's state.
type Snapshot struct {
	Venues      []venues.Venue    `json:"venues" yaml:"venues"`
	Stale       bool              `json:"stale" yaml:"stale"`
	Focused     string            `json:"focused,omitempty" yaml:"focused,omitempty"`
	Loading     bool              `json:"loading" yaml:"loading"`
	Center      venues.Coordinate `json:"center" yaml:"center"`
	Rates       *currency.Table   `json:"rates" yaml:"rates"`
	Preferences state.Preferences `json:"preferences" yaml:"preferences"`
	Session     *state.Session    `json:"session,omitempty" yaml:"session,omitempty"`
	Filter      filter.Criteria   `json:"-" yaml:"-"`
	LastRefresh time.Time         `json:"last_refresh" yaml:"last_refresh"`
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	reconciler reconciler.Reconciler
	pipeline   *enhancer.Pipeline
	view       *viewsync.Synchronizer

	mu          sync.RWMutex
	venues      []venues.Venue
	stale       bool // collection came from the warm-start cache
	focused     string
	criteria    filter.Criteria
	rates       *currency.Table
	prefs       state.Preferences
	session     *state.Session
	inflight    int // non-silent refreshes in flight
	lastRefresh time.Time

	// auto refresh state
	autoMu        sync.Mutex
	refreshTicker *time.Ticker
	stopCh        chan struct{}
	refreshCancel context.CancelFunc

	hooks *hooks
}

// New creates a new Client instance with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	rec, err := reconciler.New(reconciler.WithTolerance(o.mergeTolerance))
	if err != nil {
		return nil, errors.WrapResource("create", "reconciler", "", err)
	}
	view, err := viewsync.New(viewsync.DefaultCenter(),
		viewsync.WithThreshold(o.viewThreshold),
		viewsync.WithClock(o.now),
	)
	if err != nil {
		return nil, errors.WrapResource("create", "view synchronizer", "", err)
	}

	enhancers := append([]enhancer.Enhancer{enhancer.NewMenuLinkEnhancer("")}, o.enhancers...)

	c := &client{
		options:    o,
		reconciler: rec,
		pipeline:   enhancer.NewPipeline(enhancers...),
		view:       view,
		venues:     []venues.Venue{},
		rates:      currency.Fallback(),
		prefs:      state.DefaultPreferences(),
		stopCh:     make(chan struct{}),
		hooks:      newHooks(),
	}

	if o.store != nil {
		c.restore(context.Background())
	}

	if o.autoRefreshEnabled {
		if err := c.AutoRefreshOn(); err != nil {
			return nil, errors.WrapResource("start", "auto refresh", "", err)
		}
	}

	return c, nil
}

// restore loads persisted state. Persistence is best effort: a failed load
// leaves defaults in place.
func (c *client) restore(ctx context.Context) {
	p, err := c.options.store.Load(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Could not load persisted state, using defaults")
		return
	}
	c.prefs = p.Preferences
	c.session = p.Session
	c.view.Restore(p.Center)
	if len(p.Venues) > 0 {
		// stale until the next merge runs over it
		c.venues = reconciler.Merge(p.Venues, nil, nil)
		c.stale = true
	}
	logging.Debug().
		Int("cached_venues", len(c.venues)).
		Str("center", p.Center.String()).
		Msg("Restored persisted state")
}

func (c *client) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Venues:      venues.CloneAll(c.venues),
		Stale:       c.stale,
		Focused:     c.focused,
		Loading:     c.inflight > 0,
		Center:      c.view.Center(),
		Rates:       c.rates.Clone(),
		Preferences: c.prefs,
		Session:     copySession(c.session),
		Filter:      c.criteria,
		LastRefresh: c.lastRefresh,
	}
}

func (c *client) Close() error {
	if err := c.AutoRefreshOff(); err != nil {
		return err
	}
	if c.options.store != nil && c.options.autoSave {
		return c.Save(context.Background())
	}
	return nil
}

// Exchange provides rate table access and conversion.
type Exchange interface {
	// Rates returns a copy of the current table; never nil
	Rates() *currency.Table

	// Convert converts with the current table, fail-open
	Convert(amount decimal.Decimal, from, to string) decimal.Decimal
}

func (c *client) Rates() *currency.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rates.Clone()
}

func (c *client) Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	c.mu.RLock()
	table := c.rates
	c.mu.RUnlock()
	return currency.Convert(amount, currency.Normalize(from), currency.Normalize(to), table)
}

func copySession(s *state.Session) *state.Session {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

func invalid(field string, value any, message string) error {
	return &errors.ValidationError{Field: field, Value: value, Message: message}
}
