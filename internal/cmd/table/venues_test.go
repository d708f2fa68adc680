package table

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/venues"
)

func labCoffee() venues.Venue {
	return venues.Venue{
		ID:        "c1",
		Name:      "Lab Coffee",
		Latitude:  41.0122,
		Longitude: 28.976,
		Prices: []venues.PriceEntry{
			{ItemName: "Latte", Price: decimal.NewFromInt(85), Currency: "TRY", UpdatedAt: time.Now()},
			{ItemName: "Americano", Price: decimal.NewFromInt(70), Currency: "TRY", UpdatedAt: time.Now()},
		},
		AverageRating: venues.Rating(4.9),
		Origin:        venues.OriginCurated,
	}
}

func TestVenuesToTableData(t *testing.T) {
	feed := venues.Venue{ID: "osm:node/2", Name: "Kahve", Prices: []venues.PriceEntry{}, Origin: venues.OriginFeed}

	data := VenuesToTableData([]venues.Venue{labCoffee(), feed}, currency.TRY, currency.Fallback(), false)
	assert.Equal(t, []string{"ID", "Name", "From", "Rating", "Origin"}, data.Headers)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"c1", "Lab Coffee", "70.00 TRY", "4.9", "curated"}, data.Rows[0])
	assert.Equal(t, []string{"osm:node/2", "Kahve", "-", "-", "feed"}, data.Rows[1])

	wide := VenuesToTableData([]venues.Venue{labCoffee()}, currency.TRY, currency.Fallback(), true)
	assert.Len(t, wide.Headers, 8)
	assert.Equal(t, "Latte, Americano", wide.Rows[0][5])
	assert.Len(t, wide.ColumnAlignment, len(wide.Headers))
}

func TestVenueToTableData(t *testing.T) {
	data := VenueToTableData(labCoffee(), currency.USD, currency.Fallback())
	last := data.Rows[len(data.Rows)-1]
	assert.Equal(t, "Americano", last[0])
	assert.Equal(t, "70.00 TRY (2.24 USD)", last[1])
}

func TestRatesToTableData(t *testing.T) {
	data := RatesToTableData(currency.Fallback())
	assert.Equal(t, []string{"Currency", "Per USD"}, data.Headers)
	assert.Equal(t, [][]string{{"EUR", "0.92"}, {"GBP", "0.78"}, {"TRY", "31.2"}, {"USD", "1"}}, data.Rows)
}
