package reconciler

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/agentstation/venuemap/pkg/venues"
)

// matcher compares venues by folded name and coordinates.
// A cases.Caser is stateful, so each merge gets its own matcher.
type matcher struct {
	fold      cases.Caser
	tolerance float64
}

func newMatcher(tolerance float64) *matcher {
	return &matcher{fold: cases.Fold(), tolerance: tolerance}
}

func (m *matcher) key(name string) string {
	return m.fold.String(strings.TrimSpace(name))
}

// same reports whether a and b describe the same place.
func (m *matcher) same(a, b venues.Venue) bool {
	return m.key(a.Name) == m.key(b.Name) && a.Coordinate().Within(b.Coordinate(), m.tolerance)
}

func (m *matcher) duplicate(working []venues.Venue, f venues.Venue) bool {
	for i := range working {
		if working[i].ID == f.ID || m.same(working[i], f) {
			return true
		}
	}
	return false
}

// feedCopy finds a feed-origin entry describing the same place as c.
func (m *matcher) feedCopy(working []venues.Venue, c venues.Venue) int {
	for i := range working {
		if working[i].Origin == venues.OriginFeed && m.same(working[i], c) {
			return i
		}
	}
	return -1
}
