package venues_test

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/venues"
)

func TestCoordinateValid(t *testing.T) {
	tests := []struct {
		name  string
		coord venues.Coordinate
		want  bool
	}{
		{"istanbul", venues.Coordinate{Latitude: 41.0082, Longitude: 28.9784}, true},
		{"poles and antimeridian", venues.Coordinate{Latitude: -90, Longitude: 180}, true},
		{"nan latitude", venues.Coordinate{Latitude: math.NaN(), Longitude: 28.9}, false},
		{"infinite longitude", venues.Coordinate{Latitude: 41, Longitude: math.Inf(1)}, false},
		{"latitude out of range", venues.Coordinate{Latitude: 91, Longitude: 0}, false},
		{"longitude out of range", venues.Coordinate{Latitude: 0, Longitude: -181}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.coord.Valid())
		})
	}
}

func TestCoordinateWithin(t *testing.T) {
	base := venues.Coordinate{Latitude: 41.0122, Longitude: 28.9760}

	assert.True(t, base.Within(venues.Coordinate{Latitude: 41.0121, Longitude: 28.9761}, 0.0001),
		"a one-step difference at the tolerance must count as within")
	assert.True(t, base.Within(venues.Coordinate{Latitude: 41.01225, Longitude: 28.97595}, 0.0001))
	assert.False(t, base.Within(venues.Coordinate{Latitude: 41.0124, Longitude: 28.9760}, 0.0001))
	assert.False(t, base.Within(venues.Coordinate{Latitude: 41.0122, Longitude: 28.9763}, 0.0001),
		"one axis outside the tolerance is enough to differ")
}

func TestVenueValidate(t *testing.T) {
	ok := venues.Venue{ID: "c1", Name: "Lab", Latitude: 41, Longitude: 29}
	require.NoError(t, ok.Validate())

	noID := ok
	noID.ID = ""
	assert.True(t, pkgerrors.IsValidationError(noID.Validate()))

	noCoord := ok
	noCoord.Longitude = math.NaN()
	err := noCoord.Validate()
	var verr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "coordinates", verr.Field)
}

func TestVenueCloneIsDeep(t *testing.T) {
	v := venues.Venue{
		ID:            "c1",
		Prices:        []venues.PriceEntry{{ItemName: "Latte", Price: decimal.NewFromInt(85), Currency: "TRY"}},
		AverageRating: venues.Rating(4.5),
	}
	c := v.Clone()
	c.Prices[0].ItemName = "Mocha"
	*c.AverageRating = 1

	assert.Equal(t, "Latte", v.Prices[0].ItemName)
	assert.Equal(t, 4.5, *v.AverageRating)
}

func TestVenueOverlay(t *testing.T) {
	existing := venues.Venue{
		ID:        "c1",
		Name:      "Lab Coffee",
		Latitude:  41.0122,
		Longitude: 28.9760,
		Website:   "https://lab.example",
		MenuURL:   "https://lab.example/menu",
		Prices:    []venues.PriceEntry{{ItemName: "Latte", Price: decimal.NewFromInt(80), Currency: "TRY"}},
		Origin:    venues.OriginCurated,
	}

	t.Run("present fields overwrite", func(t *testing.T) {
		patch := venues.Venue{
			ID:        "c1",
			Name:      "Lab Coffee Roasters",
			Latitude:  41.0123,
			Longitude: 28.9761,
			Prices:    []venues.PriceEntry{{ItemName: "Latte", Price: decimal.NewFromInt(85), Currency: "TRY"}},
		}
		got := existing.Overlay(patch)
		assert.Equal(t, "Lab Coffee Roasters", got.Name)
		assert.Equal(t, 41.0123, got.Latitude)
		assert.Equal(t, "https://lab.example", got.Website, "absent website keeps the existing one")
		assert.Equal(t, "https://lab.example/menu", got.MenuURL)
		assert.True(t, got.Prices[0].Price.Equal(decimal.NewFromInt(85)))
		assert.Equal(t, venues.OriginCurated, got.Origin)
	})

	t.Run("empty non-nil prices clear", func(t *testing.T) {
		got := existing.Overlay(venues.Venue{ID: "c1", Latitude: math.NaN(), Longitude: math.NaN(), Prices: []venues.PriceEntry{}})
		assert.Empty(t, got.Prices)
		assert.Equal(t, existing.Latitude, got.Latitude, "invalid patch coordinates are ignored")
	})

	t.Run("original untouched", func(t *testing.T) {
		before := existing.Clone()
		_ = existing.Overlay(venues.Venue{Name: "Other", Prices: []venues.PriceEntry{}})
		if diff := cmp.Diff(before, existing); diff != "" {
			t.Errorf("Overlay mutated receiver (-want +got):\n%s", diff)
		}
	})
}

func TestNewPriceEntry(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entry, err := venues.NewPriceEntry("  Latte ", decimal.NewFromInt(85), "try", at)
	require.NoError(t, err)
	assert.Equal(t, "Latte", entry.ItemName)
	assert.Equal(t, "TRY", entry.Currency)
	assert.Equal(t, at, entry.UpdatedAt)

	_, err = venues.NewPriceEntry(" ", decimal.NewFromInt(1), "TRY", at)
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = venues.NewPriceEntry("Latte", decimal.NewFromInt(-1), "TRY", at)
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = venues.NewPriceEntry("Latte", decimal.NewFromInt(1), "TL", at)
	assert.True(t, pkgerrors.IsValidationError(err))

	free, err := venues.NewPriceEntry("Water", decimal.Zero, "EUR", time.Time{})
	require.NoError(t, err)
	assert.False(t, free.UpdatedAt.IsZero())
}

func TestApplyPrice(t *testing.T) {
	v := venues.Venue{ID: "c1", Prices: []venues.PriceEntry{
		{ItemName: "Latte", Price: decimal.NewFromInt(80), Currency: "TRY"},
		{ItemName: "Americano", Price: decimal.NewFromInt(70), Currency: "TRY"},
	}}

	replaced := v.ApplyPrice(venues.PriceEntry{ItemName: "LATTE", Price: decimal.NewFromInt(85), Currency: "TRY"})
	require.Len(t, replaced.Prices, 2)
	assert.Equal(t, "LATTE", replaced.Prices[0].ItemName)
	assert.True(t, replaced.Prices[0].Price.Equal(decimal.NewFromInt(85)))
	assert.True(t, v.Prices[0].Price.Equal(decimal.NewFromInt(80)), "receiver unchanged")

	appended := v.ApplyPrice(venues.PriceEntry{ItemName: "Mocha", Price: decimal.NewFromInt(95), Currency: "TRY"})
	require.Len(t, appended.Prices, 3)
	assert.Equal(t, "Mocha", appended.Prices[2].ItemName)
}

func TestIndexAndCloneAll(t *testing.T) {
	in := []venues.Venue{{ID: "a"}, {ID: "b", Origin: venues.OriginFeed}}
	out := venues.CloneAll(in)
	out[1].Origin = venues.OriginCurated
	assert.Equal(t, venues.OriginFeed, in[1].Origin)
	assert.Equal(t, 1, venues.Index(out, "b"))
	assert.Equal(t, -1, venues.Index(out, "z"))
	assert.NotNil(t, venues.CloneAll(nil))
}
