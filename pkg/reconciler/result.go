package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/venuemap/pkg/venues"
)

// Result represents the outcome of a merge.
type Result struct {
	Venues   []venues.Venue
	Stats    Statistics
	Duration time.Duration
}

// Statistics counts what happened to each input record.
type Statistics struct {
	CuratedReplaced int // matched an existing entry by id
	CuratedAdopted  int // took over a feed copy of the same place
	CuratedAppended int
	FeedAppended    int
	FeedDuplicates  int
	Dropped         int // failed ingestion validation
}

// Added returns the number of entries the merge appended.
func (s Statistics) Added() int {
	return s.CuratedAppended + s.FeedAppended
}

// Summary returns a one-line description of the merge.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d venues (%d added, %d replaced, %d adopted, %d duplicates, %d dropped) in %v",
		len(r.Venues), r.Stats.Added(), r.Stats.CuratedReplaced, r.Stats.CuratedAdopted,
		r.Stats.FeedDuplicates, r.Stats.Dropped, r.Duration)
}
