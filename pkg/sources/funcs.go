package sources

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/venues"
)

// CuratedFuncs adapts plain functions into a Curated source.
// A nil function returns an empty result and no error.
type CuratedFuncs struct {
	Name   ID
	List   func(ctx context.Context) ([]venues.Venue, error)
	Upsert func(ctx context.Context, venueID, itemName string, price decimal.Decimal, currencyCode string) error
}

// ID implements Curated.
func (f CuratedFuncs) ID() ID { return f.Name }

// ListVenues implements Curated.
func (f CuratedFuncs) ListVenues(ctx context.Context) ([]venues.Venue, error) {
	if f.List == nil {
		return nil, nil
	}
	return f.List(ctx)
}

// UpsertPrice implements Curated.
func (f CuratedFuncs) UpsertPrice(ctx context.Context, venueID, itemName string, price decimal.Decimal, currencyCode string) error {
	if f.Upsert == nil {
		return nil
	}
	return f.Upsert(ctx, venueID, itemName, price, currencyCode)
}

// FeedFunc adapts a function into a Feed.
type FeedFunc func(ctx context.Context, lat, lon float64, radiusMeters int) ([]venues.Venue, error)

// ID implements Feed.
func (FeedFunc) ID() ID { return "func" }

// NearbyVenues implements Feed.
func (f FeedFunc) NearbyVenues(ctx context.Context, lat, lon float64, radiusMeters int) ([]venues.Venue, error) {
	return f(ctx, lat, lon, radiusMeters)
}

// RatesFunc adapts a function into a Rates source.
type RatesFunc func(ctx context.Context, base currency.Code) (*currency.Table, error)

// ID implements Rates.
func (RatesFunc) ID() ID { return "func" }

// Rates implements Rates.
func (f RatesFunc) Rates(ctx context.Context, base currency.Code) (*currency.Table, error) {
	return f(ctx, base)
}
