// Package enhancer provides best-effort venue enrichment. Enhancers run in
// priority order and a failing enhancer never fails the pipeline: the venue
// continues with whatever the previous enhancers produced.
package enhancer

import (
	"context"
	"sort"

	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Enhancer defines the interface for venue enrichment
type Enhancer interface {
	// Name returns the enhancer name
	Name() string

	// Enhance returns an enriched copy of the venue
	Enhance(ctx context.Context, venue venues.Venue) (venues.Venue, error)

	// CanEnhance checks if this enhancer applies to the venue
	CanEnhance(venue venues.Venue) bool

	// Priority returns the priority of this enhancer (higher = applied first)
	Priority() int
}

// Pipeline manages a chain of enhancers
type Pipeline struct {
	enhancers []Enhancer
}

// NewPipeline creates a new enhancer pipeline
func NewPipeline(enhancers ...Enhancer) *Pipeline {
	sorted := make([]Enhancer, len(enhancers))
	copy(sorted, enhancers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})
	return &Pipeline{enhancers: sorted}
}

// Names returns enhancer names in application order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.enhancers))
	for i, e := range p.enhancers {
		names[i] = e.Name()
	}
	return names
}

// Enhance applies every applicable enhancer to a copy of venue.
func (p *Pipeline) Enhance(ctx context.Context, venue venues.Venue) venues.Venue {
	enhanced := venue.Clone()
	for _, e := range p.enhancers {
		if !e.CanEnhance(enhanced) {
			continue
		}
		result, err := e.Enhance(ctx, enhanced)
		if err != nil {
			logging.FromContext(ctx).Warn().
				Err(err).
				Str("enhancer", e.Name()).
				Str("venue_id", venue.ID).
				Msg("Enhancer failed for venue")
			continue
		}
		enhanced = result
	}
	return enhanced
}

// Func adapts a function into an Enhancer that applies to every venue.
type Func struct {
	ID    string
	Rank  int
	Apply func(ctx context.Context, venue venues.Venue) (venues.Venue, error)
}

// Name implements Enhancer.
func (f Func) Name() string { return f.ID }

// Priority implements Enhancer.
func (f Func) Priority() int { return f.Rank }

// CanEnhance implements Enhancer.
func (f Func) CanEnhance(venues.Venue) bool { return f.Apply != nil }

// Enhance implements Enhancer.
func (f Func) Enhance(ctx context.Context, venue venues.Venue) (venues.Venue, error) {
	return f.Apply(ctx, venue)
}
