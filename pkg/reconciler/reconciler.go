// Package reconciler merges the curated venue list and the public feed list
// into one de-duplicated collection.
//
// Curated records are authoritative: they replace existing entries with the
// same id through a shallow overlay, and feed entries never overwrite
// anything. A feed venue is a duplicate when an entry in the working
// collection shares its id, or has a case-insensitively equal name with
// coordinates inside the tolerance on both axes. Merging the same inputs into
// its own output never grows the collection.
package reconciler

import (
	"context"
	"time"

	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Reconciler merges venue sources into a collection.
type Reconciler interface {
	// Merge folds curated then feed into a copy of existing.
	// It never fails; malformed records are dropped and counted.
	Merge(ctx context.Context, existing, curated, feed []venues.Venue) *Result

	// Tolerance returns the per-axis coordinate tolerance in degrees.
	Tolerance() float64
}

type reconciler struct {
	tolerance float64
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{tolerance: options.tolerance}, nil
}

// Merge merges with the default tolerance.
func Merge(existing, curated, feed []venues.Venue) []venues.Venue {
	r := &reconciler{tolerance: defaultOptions().tolerance}
	return r.Merge(context.Background(), existing, curated, feed).Venues
}

func (r *reconciler) Tolerance() float64 {
	return r.tolerance
}

func (r *reconciler) Merge(ctx context.Context, existing, curated, feed []venues.Venue) *Result {
	start := time.Now()
	result := &Result{}
	m := newMatcher(r.tolerance)

	working := ingest(existing, "", &result.Stats)
	for _, c := range ingest(curated, venues.OriginCurated, &result.Stats) {
		working = mergeCurated(working, c, m, &result.Stats)
	}
	for _, f := range ingest(feed, venues.OriginFeed, &result.Stats) {
		if m.duplicate(working, f) {
			result.Stats.FeedDuplicates++
			continue
		}
		working = append(working, f)
		result.Stats.FeedAppended++
	}

	result.Venues = working
	result.Duration = time.Since(start)

	logger := logging.FromContext(ctx)
	if result.Stats.Dropped > 0 {
		logger.Debug().Int("dropped", result.Stats.Dropped).Msg("Dropped malformed venue records")
	}
	logger.Debug().
		Int("venues", len(working)).
		Int("curated_replaced", result.Stats.CuratedReplaced).
		Int("curated_adopted", result.Stats.CuratedAdopted).
		Int("curated_appended", result.Stats.CuratedAppended).
		Int("feed_appended", result.Stats.FeedAppended).
		Int("feed_duplicates", result.Stats.FeedDuplicates).
		Msg("Merged venue sources")

	return result
}

// mergeCurated replaces by id, then adopts a feed copy of the same place,
// then appends.
func mergeCurated(working []venues.Venue, c venues.Venue, m *matcher, stats *Statistics) []venues.Venue {
	if i := venues.Index(working, c.ID); i >= 0 {
		working[i] = working[i].Overlay(c)
		stats.CuratedReplaced++
		return working
	}
	if i := m.feedCopy(working, c); i >= 0 {
		adopted := working[i].Overlay(c)
		// curated prices win even when the curated record carries none
		if c.Prices == nil {
			adopted.Prices = []venues.PriceEntry{}
		}
		working[i] = adopted
		stats.CuratedAdopted++
		return working
	}
	working = append(working, c)
	stats.CuratedAppended++
	return working
}

// ingest validates and copies records, stamping origin when set.
func ingest(in []venues.Venue, origin venues.Origin, stats *Statistics) []venues.Venue {
	out := make([]venues.Venue, 0, len(in))
	for _, v := range in {
		if err := v.Validate(); err != nil {
			stats.Dropped++
			continue
		}
		v = v.Clone()
		if origin != "" {
			v.Origin = origin
		}
		out = append(out, v)
	}
	return out
}
