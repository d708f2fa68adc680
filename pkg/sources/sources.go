// Package sources defines the collaborator contracts the store consumes:
// the curated venue store, the public points-of-interest feed and the
// exchange-rate feed.
//
// Implementations live under internal/sources. Every fetch takes a context
// and must honor its deadline; the store treats a timeout like any other
// failure.
package sources

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/venues"
)

// ID identifies a source in logs and errors.
type ID string

// Known source ids.
const (
	MemoryID   ID = "memory"
	PostgresID ID = "postgres"
	OverpassID ID = "overpass"
	ElasticID  ID = "elastic"
	RedisID    ID = "redis"
	ERAPIID    ID = "erapi"
)

// String returns the string representation of a source ID.
func (id ID) String() string {
	return string(id)
}

// Curated is the operator-controlled venue store with verified prices.
type Curated interface {
	ID() ID
	ListVenues(ctx context.Context) ([]venues.Venue, error)
	UpsertPrice(ctx context.Context, venueID, itemName string, price decimal.Decimal, currencyCode string) error
}

// Feed is the public points-of-interest dataset queried by radius.
type Feed interface {
	ID() ID
	NearbyVenues(ctx context.Context, lat, lon float64, radiusMeters int) ([]venues.Venue, error)
}

// Rates is the live exchange-rate feed. The returned table is anchored to base.
type Rates interface {
	ID() ID
	Rates(ctx context.Context, base currency.Code) (*currency.Table, error)
}

// Closer is implemented by sources holding connections.
type Closer interface {
	Close() error
}

// VenueUpserter is implemented by curated sources that can adopt a venue
// first seen in the feed, so prices can be attached to it.
type VenueUpserter interface {
	UpsertVenue(ctx context.Context, venue venues.Venue) error
}
