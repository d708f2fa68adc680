package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/venues"
)

func TestDemoVenues(t *testing.T) {
	s := New(WithDemoVenues())
	got, err := s.ListVenues(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	v := got[0]
	assert.Equal(t, "Boron-X Lab Coffee", v.Name)
	assert.Equal(t, venues.OriginCurated, v.Origin)
	require.NotNil(t, v.AverageRating)
	assert.InDelta(t, 4.9, *v.AverageRating, 1e-9)
	require.Len(t, v.Prices, 2)
	assert.Equal(t, "Latte", v.Prices[0].ItemName)
}

func TestUpsertPrice(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(WithDemoVenues(), WithClock(func() time.Time { return at }))
	ctx := context.Background()

	before := s.Prices("mock-1")
	require.Len(t, before, 2)

	require.NoError(t, s.UpsertPrice(ctx, "mock-1", "LATTE", decimal.NewFromInt(95), "try"))
	require.NoError(t, s.UpsertPrice(ctx, "mock-1", "Flat White", decimal.NewFromInt(100), "TRY"))

	after := s.Prices("mock-1")
	require.Len(t, after, 3)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, "LATTE", after[0].Entry.ItemName)
	assert.True(t, after[0].Entry.Price.Equal(decimal.NewFromInt(95)))
	assert.Equal(t, at, after[0].Entry.UpdatedAt)
	assert.NotEqual(t, uuid.Nil, after[2].ID)

	err := s.UpsertPrice(ctx, "nope", "Latte", decimal.NewFromInt(1), "TRY")
	assert.True(t, errors.IsNotFound(err))
	err = s.UpsertPrice(ctx, "mock-1", "Latte", decimal.NewFromInt(-1), "TRY")
	assert.True(t, errors.IsValidationError(err))
}

func TestUpsertVenueKeepsPrices(t *testing.T) {
	s := New(WithDemoVenues())
	ctx := context.Background()

	require.NoError(t, s.UpsertVenue(ctx, venues.Venue{
		ID: "osm:node/2", Name: "Kahve", Latitude: 41.013, Longitude: 28.977, Origin: venues.OriginFeed,
	}))
	require.NoError(t, s.UpsertVenue(ctx, venues.Venue{
		ID: "mock-1", Name: "Boron-X Lab", Latitude: 41.0122, Longitude: 28.9760,
	}))

	got, err := s.ListVenues(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Boron-X Lab", got[0].Name)
	assert.Equal(t, "Sultanahmet, İstanbul", got[0].Address)
	assert.Len(t, got[0].Prices, 2)
	assert.Equal(t, "osm:node/2", got[1].ID)
	assert.Equal(t, venues.OriginCurated, got[1].Origin)
	assert.Empty(t, got[1].Prices)
	assert.Nil(t, got[1].AverageRating)

	assert.Error(t, s.UpsertVenue(ctx, venues.Venue{ID: ""}))
}

func TestAverageRating(t *testing.T) {
	s := New(WithVenues(venues.Venue{ID: "v", Name: "V", Latitude: 1, Longitude: 1}))
	ctx := context.Background()
	require.NoError(t, s.AddReview(ctx, "v", 4))
	require.NoError(t, s.AddReview(ctx, "v", 5))
	assert.Error(t, s.AddReview(ctx, "v", 6))

	got, err := s.ListVenues(ctx)
	require.NoError(t, err)
	require.NotNil(t, got[0].AverageRating)
	assert.Equal(t, 4.5, *got[0].AverageRating)
	assert.Nil(t, AverageRating(nil))
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().ListVenues(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
