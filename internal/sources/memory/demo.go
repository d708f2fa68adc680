package memory

import (
	"github.com/shopspring/decimal"

	"github.com/agentstation/venuemap/pkg/venues"
)

// DemoVenue is a seed venue with its review ratings.
type DemoVenue struct {
	Venue   venues.Venue
	Ratings []float64
}

// Demo returns the venues used when no curated database is configured.
func Demo() []DemoVenue {
	return []DemoVenue{
		{
			Venue: venues.Venue{
				ID:        "mock-1",
				Name:      "Boron-X Lab Coffee",
				Latitude:  41.0122,
				Longitude: 28.9760,
				Address:   "Sultanahmet, İstanbul",
				Prices: []venues.PriceEntry{
					{ItemName: "Latte", Price: decimal.NewFromInt(85), Currency: "TRY"},
					{ItemName: "Americano", Price: decimal.NewFromInt(70), Currency: "TRY"},
				},
			},
			Ratings: []float64{4.9},
		},
	}
}
