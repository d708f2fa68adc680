package venuemap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/reconciler"
	"github.com/agentstation/venuemap/pkg/venues"
	"github.com/agentstation/venuemap/pkg/viewsync"
)

// Compile-time interface check to ensure proper implementation.
var _ Updater = (*client)(nil)

// Updater handles venue and rate refreshes.
type Updater interface {
	// RefreshVenues fetches both venue sources around (lat, lon), merges the
	// results into the collection and moves the view center there. Source
	// failures degrade to empty lists and are reported in the result.
	RefreshVenues(ctx context.Context, lat, lon float64, opts ...RefreshOption) (*RefreshResult, error)

	// RefreshRates replaces the rate table. On failure the previous table stays.
	RefreshRates(ctx context.Context) error

	// Loading reports whether a non-silent refresh is in flight
	Loading() bool
}

// RefreshOption configures a single refresh.
type RefreshOption func(*refreshOptions)

type refreshOptions struct {
	silent bool
	radius int
	reason string
}

// Silent bypasses the loading flag, for background refreshes.
func Silent() RefreshOption {
	return func(o *refreshOptions) {
		o.silent = true
	}
}

// WithRadius overrides the feed search radius for one refresh.
func WithRadius(meters int) RefreshOption {
	return func(o *refreshOptions) {
		if meters > 0 {
			o.radius = meters
		}
	}
}

// WithReason labels the recenter command issued by the refresh.
func WithReason(reason string) RefreshOption {
	return func(o *refreshOptions) {
		if reason != "" {
			o.reason = reason
		}
	}
}

// RefreshResult describes one completed refresh.
type RefreshResult struct {
	Center   venues.Coordinate     `json:"center"`
	Curated  int                   `json:"curated"`
	Feed     int                   `json:"feed"`
	Stats    reconciler.Statistics `json:"stats"`
	Venues   int                   `json:"venues"`
	Errors   []error               `json:"-"`
	Duration time.Duration         `json:"duration"`
}

// Degraded reports whether any source failed during the refresh.
func (r *RefreshResult) Degraded() bool {
	return len(r.Errors) > 0
}

// Err joins the source failures, or returns nil.
func (r *RefreshResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return errors.Join(r.Errors...)
}

func (c *client) RefreshVenues(ctx context.Context, lat, lon float64, opts ...RefreshOption) (*RefreshResult, error) {
	target := venues.Coordinate{Latitude: lat, Longitude: lon}
	if !target.Valid() {
		return nil, &errors.ValidationError{
			Field:   "center",
			Value:   target.String(),
			Message: "latitude must be in [-90, 90] and longitude in [-180, 180]",
		}
	}

	ro := &refreshOptions{radius: c.options.searchRadius, reason: "refresh"}
	for _, opt := range opts {
		opt(ro)
	}

	logger := logging.FromContext(ctx).With().
		Str("operation", "refresh_venues").
		Str("center", target.String()).
		Logger()
	ctx = logging.WithLogger(ctx, &logger)
	start := time.Now()

	if !ro.silent {
		c.beginLoading()
		defer c.endLoading()
	}

	curated, feed, errs := c.fetchVenues(ctx, target, ro.radius)

	// both fetches have settled before the merge observes either
	c.mu.Lock()
	old := c.venues
	res := c.reconciler.Merge(ctx, old, curated, feed)
	c.venues = res.Venues
	c.stale = false
	c.lastRefresh = c.options.now()
	if c.focused != "" && venues.Index(c.venues, c.focused) < 0 {
		c.focused = ""
	}
	outcome := c.view.Propose(target, ro.reason)
	c.mu.Unlock()

	c.hooks.triggerCollectionUpdate(old, res.Venues)
	c.hooks.triggerView(outcome)

	result := &RefreshResult{
		Center:   outcome.Center,
		Curated:  len(curated),
		Feed:     len(feed),
		Stats:    res.Stats,
		Venues:   len(res.Venues),
		Errors:   errs,
		Duration: time.Since(start),
	}

	logger.Info().
		Int("curated", result.Curated).
		Int("feed", result.Feed).
		Int("venues", result.Venues).
		Int("added", res.Stats.Added()).
		Bool("degraded", result.Degraded()).
		Dur("duration", result.Duration).
		Msg("Refreshed venues")

	c.autoSaveState(ctx)
	return result, nil
}

// fetchVenues fetches the curated and feed sources concurrently. A failed or
// timed out fetch yields an empty list and a FetchError.
func (c *client) fetchVenues(ctx context.Context, at venues.Coordinate, radius int) (curated, feed []venues.Venue, errs []error) {
	logger := logging.FromContext(ctx)

	var wg sync.WaitGroup
	var errMutex sync.Mutex
	record := func(source string, err error) {
		logger.Warn().Err(err).Str("source", source).Msg("Source fetch failed, continuing without it")
		errMutex.Lock()
		errs = append(errs, errors.WrapFetch(source, err))
		errMutex.Unlock()
	}

	if src := c.options.curated; src != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vs, err := within(ctx, c.options.fetchTimeout, src.ListVenues)
			if err != nil {
				record(src.ID().String(), err)
				return
			}
			curated = vs
		}()
	}

	if src := c.options.feed; src != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vs, err := within(ctx, c.options.fetchTimeout, func(ctx context.Context) ([]venues.Venue, error) {
				return src.NearbyVenues(ctx, at.Latitude, at.Longitude, radius)
			})
			if err != nil {
				record(src.ID().String(), err)
				return
			}
			feed = vs
		}()
	}

	wg.Wait()
	return curated, feed, errs
}

// within runs fn under a timeout. A collaborator that ignores its context is
// abandoned when the deadline passes and reported as timed out.
func within[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %w", errors.ErrTimeout, ctx.Err())
	}
}

func (c *client) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight > 0
}

func (c *client) beginLoading() {
	c.mu.Lock()
	c.inflight++
	flipped := c.inflight == 1
	c.mu.Unlock()
	if flipped {
		c.hooks.triggerLoading(true)
	}
}

func (c *client) endLoading() {
	c.mu.Lock()
	c.inflight--
	flipped := c.inflight == 0
	c.mu.Unlock()
	if flipped {
		c.hooks.triggerLoading(false)
	}
}

// propose routes a programmatic center request through the synchronizer.
func (c *client) propose(target venues.Coordinate, reason string) viewsync.Outcome {
	c.mu.Lock()
	outcome := c.view.Propose(target, reason)
	c.mu.Unlock()
	c.hooks.triggerView(outcome)
	return outcome
}
