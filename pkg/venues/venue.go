// Package venues defines the venue data model shared by every source,
// the reconciler and the store.
package venues

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentstation/venuemap/pkg/errors"
)

// Origin records which source a venue entered the merged collection from.
type Origin string

// Origins.
const (
	OriginCurated Origin = "curated"
	OriginFeed    Origin = "feed"
)

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Latitude  float64 `json:"lat" yaml:"lat"`
	Longitude float64 `json:"lng" yaml:"lng"`
}

// String renders the coordinate with six decimals.
func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Latitude, c.Longitude)
}

// Valid reports whether both axes are finite and within range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) ||
		math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Within reports whether c and o differ by at most tolerance on each axis.
// A small epsilon absorbs float representation noise at the boundary.
func (c Coordinate) Within(o Coordinate, tolerance float64) bool {
	const epsilon = 1e-9
	return math.Abs(c.Latitude-o.Latitude) <= tolerance+epsilon &&
		math.Abs(c.Longitude-o.Longitude) <= tolerance+epsilon
}

// PriceEntry is one submitted price for an item at a venue.
type PriceEntry struct {
	ItemName  string          `json:"item_name" yaml:"item_name"`
	Price     decimal.Decimal `json:"price" yaml:"price"`
	Currency  string          `json:"currency" yaml:"currency"`
	UpdatedAt time.Time       `json:"updated_at" yaml:"updated_at"`
}

// Venue is a place on the map. Missing coordinates are represented as NaN
// and such venues never enter the merged collection.
type Venue struct {
	ID            string       `json:"id" yaml:"id"`
	Name          string       `json:"name" yaml:"name"`
	Latitude      float64      `json:"lat" yaml:"lat"`
	Longitude     float64      `json:"lng" yaml:"lng"`
	Address       string       `json:"address,omitempty" yaml:"address,omitempty"`
	Website       string       `json:"website,omitempty" yaml:"website,omitempty"`
	MenuURL       string       `json:"menu_url,omitempty" yaml:"menu_url,omitempty"`
	Prices        []PriceEntry `json:"prices" yaml:"prices"`
	AverageRating *float64     `json:"average_rating,omitempty" yaml:"average_rating,omitempty"`
	Origin        Origin       `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// Coordinate returns the venue position.
func (v Venue) Coordinate() Coordinate {
	return Coordinate{Latitude: v.Latitude, Longitude: v.Longitude}
}

// Validate checks the ingestion invariants: a stable id and usable coordinates.
func (v Venue) Validate() error {
	if v.ID == "" {
		return &errors.ValidationError{Field: "id", Message: "cannot be empty"}
	}
	if !v.Coordinate().Valid() {
		return &errors.ValidationError{
			Field:   "coordinates",
			Value:   v.Coordinate(),
			Message: "must be finite and within range",
		}
	}
	return nil
}

// Clone returns a deep copy of v.
func (v Venue) Clone() Venue {
	out := v
	if v.Prices != nil {
		out.Prices = make([]PriceEntry, len(v.Prices))
		copy(out.Prices, v.Prices)
	}
	if v.AverageRating != nil {
		r := *v.AverageRating
		out.AverageRating = &r
	}
	return out
}

// Overlay returns v with every field present on patch written over it.
// Empty strings, a nil rating and a nil price slice count as absent.
// Coordinates are always taken from patch when they are valid.
func (v Venue) Overlay(patch Venue) Venue {
	out := v.Clone()
	p := patch.Clone()
	if p.ID != "" {
		out.ID = p.ID
	}
	if p.Name != "" {
		out.Name = p.Name
	}
	if p.Coordinate().Valid() {
		out.Latitude, out.Longitude = p.Latitude, p.Longitude
	}
	if p.Address != "" {
		out.Address = p.Address
	}
	if p.Website != "" {
		out.Website = p.Website
	}
	if p.MenuURL != "" {
		out.MenuURL = p.MenuURL
	}
	if p.Prices != nil {
		out.Prices = p.Prices
	}
	if p.AverageRating != nil {
		out.AverageRating = p.AverageRating
	}
	if p.Origin != "" {
		out.Origin = p.Origin
	}
	return out
}

// CloneAll deep-copies a venue slice. A nil input yields an empty slice.
func CloneAll(in []Venue) []Venue {
	out := make([]Venue, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// Rating is a convenience for building an optional average rating.
func Rating(r float64) *float64 {
	return &r
}

// Index returns the position of the venue with the given id, or -1.
func Index(vs []Venue, id string) int {
	for i := range vs {
		if vs[i].ID == id {
			return i
		}
	}
	return -1
}
