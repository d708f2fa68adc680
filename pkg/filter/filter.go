// Package filter projects the merged venue collection into the list a
// reader sees. Every function returns new slices; the input is never touched.
package filter

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/venues"
)

// SortKey selects the ordering of a projection.
type SortKey string

// Sort keys. SortNone keeps collection order.
const (
	SortNone   SortKey = ""
	SortName   SortKey = "name"
	SortPrice  SortKey = "price"
	SortRating SortKey = "rating"
)

// ParseSortKey accepts the sort names used by the CLI and HTTP API.
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNone, SortName, SortPrice, SortRating:
		return k, true
	default:
		return SortNone, false
	}
}

// Criteria describes a projection. Price bounds apply to a venue's cheapest
// item converted into Currency; venues without prices fail any price bound.
type Criteria struct {
	Query     string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	MinRating *float64
	Sort      SortKey
	// Descending reverses any sort key. Unpriced and unrated venues stay last.
	Descending bool
	Currency   currency.Code
	Limit      int
}

// Apply filters and sorts vs.
func Apply(vs []venues.Venue, c Criteria, table *currency.Table) []venues.Venue {
	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(c.Query))

	type row struct {
		venue    venues.Venue
		cheapest decimal.Decimal
		priced   bool
	}
	rows := make([]row, 0, len(vs))
	for _, v := range vs {
		if query != "" && !strings.Contains(fold.String(v.Name), query) &&
			!strings.Contains(fold.String(v.Address), query) {
			continue
		}
		if c.MinRating != nil && (v.AverageRating == nil || *v.AverageRating < *c.MinRating) {
			continue
		}
		cheapest, priced := CheapestPrice(v, c.Currency, table)
		if c.MinPrice != nil && (!priced || cheapest.LessThan(*c.MinPrice)) {
			continue
		}
		if c.MaxPrice != nil && (!priced || cheapest.GreaterThan(*c.MaxPrice)) {
			continue
		}
		rows = append(rows, row{venue: v.Clone(), cheapest: cheapest, priced: priced})
	}

	less := func(i, j int) bool { return false }
	switch c.Sort {
	case SortName:
		less = func(i, j int) bool {
			a, b := fold.String(rows[i].venue.Name), fold.String(rows[j].venue.Name)
			if c.Descending {
				return a > b
			}
			return a < b
		}
	case SortPrice:
		less = func(i, j int) bool {
			// unpriced venues always sink to the bottom
			if rows[i].priced != rows[j].priced {
				return rows[i].priced
			}
			if c.Descending {
				return rows[i].cheapest.GreaterThan(rows[j].cheapest)
			}
			return rows[i].cheapest.LessThan(rows[j].cheapest)
		}
	case SortRating:
		less = func(i, j int) bool {
			ri, rj := rows[i].venue.AverageRating, rows[j].venue.AverageRating
			if (ri == nil) != (rj == nil) {
				return ri != nil
			}
			if ri == nil {
				return false
			}
			if c.Descending {
				return *ri > *rj
			}
			return *ri < *rj
		}
	}
	if c.Sort != SortNone {
		sort.SliceStable(rows, less)
	}

	out := make([]venues.Venue, 0, len(rows))
	for _, r := range rows {
		if c.Limit > 0 && len(out) == c.Limit {
			break
		}
		out = append(out, r.venue)
	}
	return out
}

// CheapestPrice returns the venue's lowest price converted into display.
// An empty display currency compares raw amounts.
func CheapestPrice(v venues.Venue, display currency.Code, table *currency.Table) (decimal.Decimal, bool) {
	var best decimal.Decimal
	found := false
	for _, p := range v.Prices {
		amount := p.Price
		if display != "" {
			amount = currency.Convert(p.Price, currency.Normalize(p.Currency), display, table)
		}
		if !found || amount.LessThan(best) {
			best, found = amount, true
		}
	}
	return best, found
}
