// Package cmdutil provides shared flags for venuemap commands.
package cmdutil

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/filter"
)

// FilterFlags holds the venue projection flags.
type FilterFlags struct {
	Search    string
	MinPrice  string
	MaxPrice  string
	MinRating float64
	Sort      string
	Desc      bool
	Currency  string
	Limit     int
}

// AddFilterFlags adds venue projection flags to a command.
func AddFilterFlags(cmd *cobra.Command) *FilterFlags {
	flags := &FilterFlags{}

	cmd.Flags().StringVarP(&flags.Search, "search", "s", "",
		"Case-insensitive name search")
	cmd.Flags().StringVar(&flags.MinPrice, "min-price", "",
		"Minimum cheapest-item price in the display currency")
	cmd.Flags().StringVar(&flags.MaxPrice, "max-price", "",
		"Maximum cheapest-item price in the display currency")
	cmd.Flags().Float64Var(&flags.MinRating, "min-rating", 0,
		"Minimum average rating")
	cmd.Flags().StringVar(&flags.Sort, "sort", "",
		"Sort by: name, price, rating")
	cmd.Flags().BoolVar(&flags.Desc, "desc", false,
		"Sort descending")
	cmd.Flags().StringVarP(&flags.Currency, "currency", "c", "",
		"Display currency (default from preferences)")
	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", 0,
		"Limit number of results")

	return flags
}

// Criteria validates the flags and builds a projection.
func (f *FilterFlags) Criteria() (filter.Criteria, error) {
	c := filter.Criteria{
		Query:      f.Search,
		Descending: f.Desc,
		Limit:      f.Limit,
	}

	sort, ok := filter.ParseSortKey(f.Sort)
	if !ok {
		return c, errors.NewValidationError("sort", f.Sort, "must be one of name, price, rating")
	}
	c.Sort = sort

	if f.Currency != "" {
		code := currency.Normalize(f.Currency)
		if !code.Valid() {
			return c, errors.NewValidationError("currency", f.Currency, "must be a three-letter code")
		}
		c.Currency = code
	}

	var err error
	if c.MinPrice, err = parsePrice("min-price", f.MinPrice); err != nil {
		return c, err
	}
	if c.MaxPrice, err = parsePrice("max-price", f.MaxPrice); err != nil {
		return c, err
	}
	if f.MinRating > 0 {
		r := f.MinRating
		c.MinRating = &r
	}
	return c, nil
}

func parsePrice(field, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, errors.NewValidationError(field, raw, "must be a non-negative number")
	}
	return &d, nil
}
