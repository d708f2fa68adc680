// Package overpass implements the public points-of-interest feed over the
// OpenStreetMap Overpass API.
package overpass

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentstation/venuemap/internal/transport"
	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/sources"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Compile-time interface check.
var _ sources.Feed = (*Source)(nil)

// DefaultAmenity is the OSM amenity tag queried.
const DefaultAmenity = "cafe"

// Source queries Overpass for amenities around a point.
type Source struct {
	client  *transport.Client
	url     string
	amenity string
	limit   int
}

// Option configures a Source.
type Option func(*Source)

// WithURL points the source at another Overpass instance.
func WithURL(u string) Option {
	return func(s *Source) {
		if u != "" {
			s.url = u
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Source) {
		s.client = transport.New(sources.OverpassID.String(), transport.WithHTTPClient(hc))
	}
}

// WithAmenity queries another amenity type, e.g. "restaurant".
func WithAmenity(amenity string) Option {
	return func(s *Source) {
		if amenity != "" {
			s.amenity = amenity
		}
	}
}

// WithLimit caps the number of venues returned.
func WithLimit(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.limit = n
		}
	}
}

// New creates an Overpass feed.
func New(opts ...Option) *Source {
	s := &Source{
		client:  transport.New(sources.OverpassID.String()),
		url:     constants.OverpassURL,
		amenity: DefaultAmenity,
		limit:   constants.MaxOverpassResults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID implements sources.Feed.
func (s *Source) ID() sources.ID {
	return sources.OverpassID
}

// NearbyVenues implements sources.Feed.
func (s *Source) NearbyVenues(ctx context.Context, lat, lon float64, radiusMeters int) ([]venues.Venue, error) {
	if radiusMeters <= 0 {
		radiusMeters = constants.DefaultSearchRadius
	}
	query := Query(s.amenity, lat, lon, radiusMeters)

	resp, err := s.client.PostForm(ctx, s.url, url.Values{"data": {query}})
	if err != nil {
		return nil, err
	}
	var body response
	if err := s.client.Decode(resp, &body); err != nil {
		return nil, err
	}

	out := make([]venues.Venue, 0, len(body.Elements))
	skipped := 0
	for _, el := range body.Elements {
		v, ok := el.venue()
		if !ok {
			skipped++
			continue
		}
		if len(out) == s.limit {
			break
		}
		out = append(out, v)
	}

	logging.FromContext(ctx).Debug().
		Str("source", sources.OverpassID.String()).
		Int("elements", len(body.Elements)).
		Int("venues", len(out)).
		Int("skipped", skipped).
		Msg("Fetched nearby venues")

	if body.Remark != "" && len(body.Elements) == 0 {
		// Overpass reports runtime errors in the remark with a 200 status
		return nil, &errors.APIError{Source: sources.OverpassID.String(), StatusCode: http.StatusGatewayTimeout, Message: body.Remark}
	}
	return out, nil
}

// Query builds the Overpass QL query for an amenity around a point.
func Query(amenity string, lat, lon float64, radiusMeters int) string {
	around := fmt.Sprintf("(around:%d,%s,%s)", radiusMeters, coord(lat), coord(lon))
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];(")
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&b, `%s["amenity"=%q]%s;`, kind, amenity, around)
	}
	b.WriteString(");out center;")
	return b.String()
}

func coord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type response struct {
	Remark   string    `json:"remark"`
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// venue maps an element. Elements without a position are rejected.
func (e element) venue() (venues.Venue, bool) {
	lat, lon := math.NaN(), math.NaN()
	switch {
	case e.Lat != nil && e.Lon != nil:
		lat, lon = *e.Lat, *e.Lon
	case e.Center != nil:
		lat, lon = e.Center.Lat, e.Center.Lon
	}
	v := venues.Venue{
		ID:        fmt.Sprintf("osm:%s/%d", e.Type, e.ID),
		Name:      strings.TrimSpace(e.Tags["name"]),
		Latitude:  lat,
		Longitude: lon,
		Address:   address(e.Tags),
		Website:   website(e.Tags),
		Prices:    []venues.PriceEntry{},
		Origin:    venues.OriginFeed,
	}
	if v.Name == "" {
		v.Name = constants.UnnamedVenue
	}
	if !v.Coordinate().Valid() {
		return venues.Venue{}, false
	}
	return v, true
}

func address(tags map[string]string) string {
	street := strings.TrimSpace(tags["addr:street"])
	if street == "" {
		return ""
	}
	if n := strings.TrimSpace(tags["addr:housenumber"]); n != "" {
		return street + " " + n
	}
	return street
}

func website(tags map[string]string) string {
	if w := strings.TrimSpace(tags["website"]); w != "" {
		return w
	}
	return strings.TrimSpace(tags["contact:website"])
}
