package venuemap

import (
	"context"
	"math"
	"reflect"

	"github.com/shopspring/decimal"

	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/filter"
	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/sources"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Compile-time interface check to ensure proper implementation.
var _ Directory = (*client)(nil)

// Directory provides read access to venues and venue-level commands.
type Directory interface {
	// Venues projects the collection through c. An empty c.Currency uses
	// the display currency from preferences.
	Venues(c filter.Criteria) []venues.Venue

	// Listing projects the collection through the stored criteria
	Listing() []venues.Venue

	// Venue returns a copy of one venue
	Venue(id string) (venues.Venue, error)

	// Focused returns the venue shown in the detail panel, if any
	Focused() (venues.Venue, bool)

	// FocusVenue selects a venue, fills in its menu link and flies the map to it
	FocusVenue(ctx context.Context, id string) (venues.Venue, error)

	// ClearFocus deselects the focused venue
	ClearFocus()

	// SubmitPrice records a user-submitted price with the curated source and
	// applies it to the collection
	SubmitPrice(ctx context.Context, venueID, item string, price decimal.Decimal, currencyCode string) (venues.Venue, error)

	// ResetVenues empties the collection
	ResetVenues()

	// SetFilter stores the criteria used by Listing
	SetFilter(c filter.Criteria)

	// Filter returns the stored criteria
	Filter() filter.Criteria
}

func (c *client) Venues(criteria filter.Criteria) []venues.Venue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if criteria.Currency == "" {
		criteria.Currency = c.prefs.Currency
	}
	return filter.Apply(c.venues, criteria, c.rates)
}

func (c *client) Listing() []venues.Venue {
	return c.Venues(c.Filter())
}

func (c *client) Venue(id string) (venues.Venue, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := venues.Index(c.venues, id)
	if i < 0 {
		return venues.Venue{}, &errors.NotFoundError{Resource: "venue", ID: id}
	}
	return c.venues[i].Clone(), nil
}

func (c *client) Focused() (venues.Venue, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.focused == "" {
		return venues.Venue{}, false
	}
	i := venues.Index(c.venues, c.focused)
	if i < 0 {
		return venues.Venue{}, false
	}
	return c.venues[i].Clone(), true
}

func (c *client) FocusVenue(ctx context.Context, id string) (venues.Venue, error) {
	v, err := c.Venue(id)
	if err != nil {
		return venues.Venue{}, err
	}

	// enrichment runs outside the lock; only the result is written back
	enriched := c.pipeline.Enhance(logging.WithVenue(ctx, id), v)

	c.mu.Lock()
	i := venues.Index(c.venues, id)
	if i < 0 {
		c.mu.Unlock()
		return venues.Venue{}, &errors.NotFoundError{Resource: "venue", ID: id}
	}
	old := c.venues
	c.venues = venues.CloneAll(old)
	patch := enrichment(v, enriched)
	if c.venues[i].MenuURL != "" {
		// a known menu link is never replaced by an inferred one
		patch.MenuURL = ""
	}
	c.venues[i] = c.venues[i].Overlay(patch)
	c.focused = id
	updated := c.venues
	focused := c.venues[i].Clone()
	c.mu.Unlock()

	c.hooks.triggerCollectionUpdate(old, updated)
	c.propose(focused.Coordinate(), "focus")

	logging.FromContext(ctx).Debug().
		Str("venue", id).
		Str("menu_url", focused.MenuURL).
		Msg("Focused venue")
	return focused, nil
}

// enrichment returns a patch holding only the fields the enhancers changed,
// so writes that landed while they ran are not clobbered.
func enrichment(before, after venues.Venue) venues.Venue {
	patch := venues.Venue{Latitude: math.NaN(), Longitude: math.NaN()}
	if after.Name != before.Name {
		patch.Name = after.Name
	}
	if after.Coordinate() != before.Coordinate() {
		patch.Latitude, patch.Longitude = after.Latitude, after.Longitude
	}
	if after.Address != before.Address {
		patch.Address = after.Address
	}
	if after.Website != before.Website {
		patch.Website = after.Website
	}
	if after.MenuURL != before.MenuURL {
		patch.MenuURL = after.MenuURL
	}
	if !reflect.DeepEqual(after.Prices, before.Prices) {
		patch.Prices = after.Prices
	}
	if !reflect.DeepEqual(after.AverageRating, before.AverageRating) {
		patch.AverageRating = after.AverageRating
	}
	return patch
}

func (c *client) ClearFocus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focused = ""
}

func (c *client) SubmitPrice(ctx context.Context, venueID, item string, price decimal.Decimal, currencyCode string) (venues.Venue, error) {
	entry, err := venues.NewPriceEntry(item, price, currencyCode, c.options.now())
	if err != nil {
		return venues.Venue{}, err
	}
	if c.options.curated == nil {
		return venues.Venue{}, &errors.ConfigError{Component: "curated", Message: "no curated source configured"}
	}
	v, err := c.Venue(venueID)
	if err != nil {
		return venues.Venue{}, err
	}

	logger := logging.FromContext(ctx).With().
		Str("operation", "submit_price").
		Str("venue", venueID).
		Str("item", entry.ItemName).
		Logger()

	// a feed venue has to exist in the curated store before it can carry prices
	if v.Origin == venues.OriginFeed {
		if up, ok := c.options.curated.(sources.VenueUpserter); ok {
			if err := up.UpsertVenue(ctx, v); err != nil {
				return venues.Venue{}, errors.WrapResource("upsert", "venue", venueID, err)
			}
		}
	}

	if err := c.options.curated.UpsertPrice(ctx, venueID, entry.ItemName, entry.Price, entry.Currency); err != nil {
		logger.Warn().Err(err).Msg("Price submission failed")
		return venues.Venue{}, errors.WrapResource("upsert", "price", venueID, err)
	}

	c.mu.Lock()
	i := venues.Index(c.venues, venueID)
	if i < 0 {
		c.mu.Unlock()
		return venues.Venue{}, &errors.NotFoundError{Resource: "venue", ID: venueID}
	}
	old := c.venues
	c.venues = venues.CloneAll(old)
	next := c.venues[i].ApplyPrice(entry)
	next.Origin = venues.OriginCurated
	c.venues[i] = next
	updated := c.venues
	c.mu.Unlock()

	c.hooks.triggerCollectionUpdate(old, updated)
	logger.Info().
		Str("price", entry.Price.String()).
		Str("currency", entry.Currency).
		Msg("Recorded price")
	c.autoSaveState(ctx)
	return next.Clone(), nil
}

func (c *client) ResetVenues() {
	c.mu.Lock()
	old := c.venues
	c.venues = []venues.Venue{}
	c.focused = ""
	c.stale = false
	c.mu.Unlock()
	c.hooks.triggerCollectionUpdate(old, nil)
}

func (c *client) SetFilter(criteria filter.Criteria) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria = criteria
}

func (c *client) Filter() filter.Criteria {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.criteria
}
