// Package memory implements an in-process curated venue store. It backs
// offline mode, where it is seeded with a demo venue, and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/sources"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Compile-time interface checks.
var (
	_ sources.Curated       = (*Store)(nil)
	_ sources.VenueUpserter = (*Store)(nil)
)

// PriceRecord is a stored price row.
type PriceRecord struct {
	ID      uuid.UUID         `json:"id"`
	VenueID string            `json:"venue_id"`
	Entry   venues.PriceEntry `json:"entry"`
}

type record struct {
	venue   venues.Venue
	prices  []PriceRecord
	ratings []float64
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
	order   []string
	fold    cases.Caser
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithVenues seeds the store.
func WithVenues(vs ...venues.Venue) Option {
	return func(s *Store) {
		for _, v := range vs {
			s.put(v)
		}
	}
}

// WithDemoVenues seeds the store with the offline demo venue.
func WithDemoVenues() Option {
	return func(s *Store) {
		for _, d := range Demo() {
			s.put(d.Venue)
			s.records[d.Venue.ID].ratings = append([]float64(nil), d.Ratings...)
		}
	}
}

// WithClock overrides the clock used to stamp prices.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]*record),
		fold:    cases.Fold(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID implements sources.Curated.
func (s *Store) ID() sources.ID {
	return sources.MemoryID
}

// ListVenues implements sources.Curated. Each venue carries its prices and
// the mean of its review ratings.
func (s *Store) ListVenues(ctx context.Context) ([]venues.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]venues.Venue, 0, len(s.order))
	for _, id := range s.order {
		r := s.records[id]
		v := r.venue.Clone()
		v.Prices = make([]venues.PriceEntry, 0, len(r.prices))
		for _, p := range r.prices {
			v.Prices = append(v.Prices, p.Entry)
		}
		v.AverageRating = AverageRating(r.ratings)
		v.Origin = venues.OriginCurated
		out = append(out, v)
	}
	return out, nil
}

// UpsertPrice implements sources.Curated. A row with the same venue and
// case-folded item name is replaced.
func (s *Store) UpsertPrice(ctx context.Context, venueID, itemName string, price decimal.Decimal, currencyCode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry, err := venues.NewPriceEntry(itemName, price, currencyCode, s.now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[venueID]
	if !ok {
		return &errors.NotFoundError{Resource: "venue", ID: venueID}
	}
	key := s.fold.String(entry.ItemName)
	for i := range r.prices {
		if s.fold.String(r.prices[i].Entry.ItemName) == key {
			r.prices[i].Entry = entry
			return nil
		}
	}
	r.prices = append(r.prices, PriceRecord{ID: uuid.New(), VenueID: venueID, Entry: entry})
	return nil
}

// UpsertVenue implements sources.VenueUpserter. Existing prices and reviews
// are kept.
func (s *Store) UpsertVenue(ctx context.Context, v venues.Venue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := v.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[v.ID]; ok {
		r.venue = r.venue.Overlay(strip(v))
		return nil
	}
	s.put(v)
	return nil
}

// AddReview records a review rating in [1, 5].
func (s *Store) AddReview(ctx context.Context, venueID string, rating float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rating < 1 || rating > 5 {
		return errors.NewValidationError("rating", rating, "must be between 1 and 5")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[venueID]
	if !ok {
		return &errors.NotFoundError{Resource: "venue", ID: venueID}
	}
	r.ratings = append(r.ratings, rating)
	return nil
}

// Prices returns the stored price rows of a venue.
func (s *Store) Prices(venueID string) []PriceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[venueID]
	if !ok {
		return nil
	}
	return append([]PriceRecord(nil), r.prices...)
}

// put must be called with the lock held or during construction.
func (s *Store) put(v venues.Venue) {
	r := &record{venue: strip(v)}
	for _, p := range v.Prices {
		r.prices = append(r.prices, PriceRecord{ID: uuid.New(), VenueID: v.ID, Entry: p})
	}
	if _, exists := s.records[v.ID]; !exists {
		s.order = append(s.order, v.ID)
	}
	s.records[v.ID] = r
}

// strip removes the fields the store derives itself.
func strip(v venues.Venue) venues.Venue {
	out := v.Clone()
	out.Prices = nil
	out.AverageRating = nil
	out.Origin = ""
	return out
}

// AverageRating is the mean of ratings, or nil when there are none.
func AverageRating(ratings []float64) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0.0
	for _, r := range ratings {
		sum += r
	}
	return venues.Rating(sum / float64(len(ratings)))
}
