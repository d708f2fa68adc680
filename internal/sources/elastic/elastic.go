// Package elastic implements the feed over an Elasticsearch index of places
// with a geo_point "location" field.
package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/olivere/elastic/v7"

	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/sources"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Compile-time interface check.
var _ sources.Feed = (*Source)(nil)

const idPrefix = "es:"

// DefaultIndex is the index queried when none is configured.
const DefaultIndex = "places"

// Mapping is the index mapping EnsureIndex creates.
const Mapping = `{
	"mappings": {
		"properties": {
			"name":     {"type": "text"},
			"address":  {"type": "text"},
			"website":  {"type": "keyword"},
			"menu_url": {"type": "keyword"},
			"location": {"type": "geo_point"}
		}
	}
}`

// Place is the indexed document.
type Place struct {
	Name     string           `json:"name"`
	Address  string           `json:"address,omitempty"`
	Website  string           `json:"website,omitempty"`
	MenuURL  string           `json:"menu_url,omitempty"`
	Location elastic.GeoPoint `json:"location"`
}

// Source searches an index for places near a point.
type Source struct {
	client *elastic.Client
	index  string
	limit  int
}

// Option configures a Source.
type Option func(*Source)

// WithIndex selects the index.
func WithIndex(index string) Option {
	return func(s *Source) {
		if index != "" {
			s.index = index
		}
	}
}

// WithLimit caps the number of hits returned.
func WithLimit(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.limit = n
		}
	}
}

// New connects to the cluster at url. Sniffing and the startup health check
// are off so a single-node or proxied cluster works.
func New(url string, httpClient *http.Client, opts ...Option) (*Source, error) {
	clientOpts := []elastic.ClientOptionFunc{
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	}
	if httpClient != nil {
		clientOpts = append(clientOpts, elastic.SetHttpClient(httpClient))
	}
	client, err := elastic.NewClient(clientOpts...)
	if err != nil {
		return nil, errors.NewConfigError("elastic", "cannot create client", err)
	}
	return NewWithClient(client, opts...), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *elastic.Client, opts ...Option) *Source {
	s := &Source{client: client, index: DefaultIndex, limit: constants.MaxOverpassResults}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID implements sources.Feed.
func (s *Source) ID() sources.ID {
	return sources.ElasticID
}

// Query builds the geo-distance filter for a search.
func Query(lat, lon float64, radiusMeters int) elastic.Query {
	return elastic.NewBoolQuery().Filter(
		elastic.NewGeoDistanceQuery("location").
			Lat(lat).
			Lon(lon).
			Distance(fmt.Sprintf("%dm", radiusMeters)),
	)
}

// NearbyVenues implements sources.Feed, nearest first.
func (s *Source) NearbyVenues(ctx context.Context, lat, lon float64, radiusMeters int) ([]venues.Venue, error) {
	result, err := s.client.Search().
		Index(s.index).
		Query(Query(lat, lon, radiusMeters)).
		SortBy(elastic.NewGeoDistanceSort("location").
			Point(lat, lon).
			Asc().
			Unit("m").
			DistanceType("arc").
			IgnoreUnmapped(true)).
		Size(s.limit).
		Do(ctx)
	if err != nil {
		return nil, errors.WrapFetch(sources.ElasticID.String(), err)
	}

	out := make([]venues.Venue, 0, len(result.Hits.Hits))
	dropped := 0
	for _, hit := range result.Hits.Hits {
		v, err := hitVenue(hit.Id, hit.Source)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, v)
	}
	if dropped > 0 {
		logging.FromContext(ctx).Debug().
			Str("source", sources.ElasticID.String()).
			Int("dropped", dropped).
			Msg("Dropped unreadable hits")
	}
	return out, nil
}

func hitVenue(id string, source json.RawMessage) (venues.Venue, error) {
	var p Place
	if err := json.Unmarshal(source, &p); err != nil {
		return venues.Venue{}, err
	}
	name := p.Name
	if name == "" {
		name = constants.UnnamedVenue
	}
	return venues.Venue{
		ID:        idPrefix + id,
		Name:      name,
		Latitude:  p.Location.Lat,
		Longitude: p.Location.Lon,
		Address:   p.Address,
		Website:   p.Website,
		MenuURL:   p.MenuURL,
		Prices:    []venues.PriceEntry{},
		Origin:    venues.OriginFeed,
	}, nil
}

// EnsureIndex creates the index with Mapping when it does not exist.
func (s *Source) EnsureIndex(ctx context.Context) error {
	exists, err := s.client.IndexExists(s.index).Do(ctx)
	if err != nil {
		return errors.WrapResource("check", "index", s.index, err)
	}
	if exists {
		return nil
	}
	created, err := s.client.CreateIndex(s.index).BodyString(Mapping).Do(ctx)
	if err != nil {
		return errors.WrapResource("create", "index", s.index, err)
	}
	if !created.Acknowledged {
		logging.FromContext(ctx).Warn().Str("index", s.index).Msg("Index creation was not acknowledged")
	}
	return nil
}

// IndexVenues bulk-indexes venues as places keyed by venue id. It returns
// the number of documents the cluster rejected.
func (s *Source) IndexVenues(ctx context.Context, vs []venues.Venue) (int, error) {
	if len(vs) == 0 {
		return 0, nil
	}
	bulk := s.client.Bulk()
	for _, v := range vs {
		doc := Place{
			Name:     v.Name,
			Address:  v.Address,
			Website:  v.Website,
			MenuURL:  v.MenuURL,
			Location: elastic.GeoPoint{Lat: v.Latitude, Lon: v.Longitude},
		}
		bulk = bulk.Add(elastic.NewBulkIndexRequest().Index(s.index).Id(strings.TrimPrefix(v.ID, idPrefix)).Doc(doc))
	}
	resp, err := bulk.Do(ctx)
	if err != nil {
		return 0, errors.WrapResource("index", "venues", s.index, err)
	}
	failed := 0
	logger := logging.FromContext(ctx)
	for _, item := range resp.Failed() {
		failed++
		if item.Error != nil {
			logger.Warn().Str("id", item.Id).Str("reason", item.Error.Reason).Msg("Bulk index failed")
		}
	}
	return failed, nil
}
