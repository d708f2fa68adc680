package output

import (
	"io"

	"github.com/agentstation/venuemap/internal/cmd/table"
	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Venues writes a venue list. Tabular formats show the cheapest item in display.
func Venues(w io.Writer, format Format, vs []venues.Venue, display currency.Code, rates *currency.Table) error {
	if format.Tabular() {
		return NewFormatter(format).Format(w, table.VenuesToTableData(vs, display, rates, format == FormatWide))
	}
	return NewFormatter(format).Format(w, vs)
}

// Venue writes one venue with its prices.
func Venue(w io.Writer, format Format, v venues.Venue, display currency.Code, rates *currency.Table) error {
	if format.Tabular() {
		return NewFormatter(format).Format(w, table.VenueToTableData(v, display, rates))
	}
	return NewFormatter(format).Format(w, v)
}

// Rates writes a rate table.
func Rates(w io.Writer, format Format, t *currency.Table) error {
	if format.Tabular() {
		return NewFormatter(format).Format(w, table.RatesToTableData(t))
	}
	return NewFormatter(format).Format(w, t)
}

// Any writes data in format.
func Any(w io.Writer, format Format, data any) error {
	return NewFormatter(format).Format(w, data)
}
