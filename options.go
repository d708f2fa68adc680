package venuemap

import (
	"time"

	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/enhancer"
	"github.com/agentstation/venuemap/pkg/sources"
	"github.com/agentstation/venuemap/pkg/state"
)

// Option is a function that configures a Client.
type Option func(*options) error

type options struct {
	curated sources.Curated
	feed    sources.Feed
	rates   sources.Rates
	store   state.Store

	baseCurrency   currency.Code
	searchRadius   int
	mergeTolerance float64
	viewThreshold  float64
	fetchTimeout   time.Duration
	ratesTimeout   time.Duration
	enhancers      []enhancer.Enhancer

	autoRefreshEnabled  bool
	autoRefreshInterval time.Duration
	autoSave            bool
	venueCache          bool
	now                 func() time.Time
}

func defaults() *options {
	return &options{
		baseCurrency:        currency.USD,
		searchRadius:        constants.DefaultSearchRadius,
		mergeTolerance:      constants.DefaultMergeTolerance,
		viewThreshold:       constants.DefaultViewThreshold,
		fetchTimeout:        constants.SourceFetchTimeout,
		ratesTimeout:        constants.RatesFetchTimeout,
		autoRefreshInterval: constants.DefaultRefreshInterval,
		autoSave:            true,
		now:                 time.Now,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithCurated sets the curated venue source.
func WithCurated(src sources.Curated) Option {
	return func(o *options) error {
		o.curated = src
		return nil
	}
}

// WithFeed sets the public points-of-interest feed.
func WithFeed(src sources.Feed) Option {
	return func(o *options) error {
		o.feed = src
		return nil
	}
}

// WithRates sets the exchange-rate source.
func WithRates(src sources.Rates) Option {
	return func(o *options) error {
		o.rates = src
		return nil
	}
}

// WithStateStore sets where preferences, session and view center persist.
func WithStateStore(store state.Store) Option {
	return func(o *options) error {
		o.store = store
		return nil
	}
}

// WithBaseCurrency sets the base requested from the rate source.
func WithBaseCurrency(code string) Option {
	return func(o *options) error {
		c := currency.Normalize(code)
		if !c.Valid() {
			return invalid("base_currency", code, "must be a three-letter code")
		}
		o.baseCurrency = c
		return nil
	}
}

// WithSearchRadius sets the feed search radius in meters.
func WithSearchRadius(meters int) Option {
	return func(o *options) error {
		if meters <= 0 {
			return invalid("search_radius", meters, "must be positive")
		}
		o.searchRadius = meters
		return nil
	}
}

// WithMergeTolerance sets the per-axis dedupe tolerance in degrees.
func WithMergeTolerance(degrees float64) Option {
	return func(o *options) error {
		o.mergeTolerance = degrees
		return nil
	}
}

// WithViewThreshold sets the per-axis view hysteresis threshold in degrees.
func WithViewThreshold(degrees float64) Option {
	return func(o *options) error {
		o.viewThreshold = degrees
		return nil
	}
}

// WithFetchTimeout bounds each venue source fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return invalid("fetch_timeout", d, "must be positive")
		}
		o.fetchTimeout = d
		return nil
	}
}

// WithRatesTimeout bounds each rate fetch.
func WithRatesTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return invalid("rates_timeout", d, "must be positive")
		}
		o.ratesTimeout = d
		return nil
	}
}

// WithEnhancers adds enhancers run when a venue is focused, next to the
// menu-link enhancer.
func WithEnhancers(enhancers ...enhancer.Enhancer) Option {
	return func(o *options) error {
		o.enhancers = append(o.enhancers, enhancers...)
		return nil
	}
}

// WithAutoRefresh configures whether the background refresh starts with the client
func WithAutoRefresh(enabled bool) Option {
	return func(o *options) error {
		o.autoRefreshEnabled = enabled
		return nil
	}
}

// WithAutoRefreshInterval configures how often the background refresh runs
func WithAutoRefreshInterval(interval time.Duration) Option {
	return func(o *options) error {
		o.autoRefreshInterval = interval
		return nil
	}
}

// WithAutoSave configures whether state changes are written to the state store immediately.
func WithAutoSave(enabled bool) Option {
	return func(o *options) error {
		o.autoSave = enabled
		return nil
	}
}

// WithVenueCache configures whether the venue collection is persisted as a
// warm-start cache.
func WithVenueCache(enabled bool) Option {
	return func(o *options) error {
		o.venueCache = enabled
		return nil
	}
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now != nil {
			o.now = now
		}
		return nil
	}
}
