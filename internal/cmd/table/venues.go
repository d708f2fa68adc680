// Package table provides common table formatting utilities for CLI commands.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/filter"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// VenuesToTableData converts venues to table format. Prices are shown as the
// cheapest item converted into display.
func VenuesToTableData(vs []venues.Venue, display currency.Code, rates *currency.Table, wide bool) Data {
	headers := []string{"ID", "Name", "From", "Rating", "Origin"}
	align := []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft}
	if wide {
		headers = append(headers, "Items", "Address", "Menu")
		align = append(align, AlignLeft, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(vs))
	for _, v := range vs {
		row := []string{
			v.ID,
			v.Name,
			FormatCheapest(v, display, rates),
			FormatRating(v.AverageRating),
			string(v.Origin),
		}
		if wide {
			row = append(row, FormatItems(v.Prices), dash(v.Address), dash(v.MenuURL))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// VenueToTableData renders one venue as a property table followed by its prices.
func VenueToTableData(v venues.Venue, display currency.Code, rates *currency.Table) Data {
	rows := [][]string{
		{"ID", v.ID},
		{"Name", v.Name},
		{"Location", v.Coordinate().String()},
		{"Address", dash(v.Address)},
		{"Website", dash(v.Website)},
		{"Menu", dash(v.MenuURL)},
		{"Rating", FormatRating(v.AverageRating)},
		{"Origin", string(v.Origin)},
	}
	for _, p := range v.Prices {
		converted := currency.Convert(p.Price, currency.Normalize(p.Currency), display, rates)
		rows = append(rows, []string{
			p.ItemName,
			fmt.Sprintf("%s %s (%s %s)", p.Price.StringFixed(2), p.Currency, converted.StringFixed(2), display),
		})
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// RatesToTableData converts a rate table to table format.
func RatesToTableData(t *currency.Table) Data {
	rows := make([][]string, 0, len(t.Codes()))
	for _, code := range t.Codes() {
		rate, _ := t.Rate(code)
		rows = append(rows, []string{code.String(), strconv.FormatFloat(rate, 'f', -1, 64)})
	}
	return Data{
		Headers:         []string{"Currency", "Per " + t.Base.String()},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// FormatCheapest formats the venue's cheapest item price in display.
func FormatCheapest(v venues.Venue, display currency.Code, rates *currency.Table) string {
	price, ok := filter.CheapestPrice(v, display, rates)
	if !ok {
		return "-"
	}
	return price.StringFixed(2) + " " + display.String()
}

// FormatRating formats an optional average rating.
func FormatRating(r *float64) string {
	if r == nil {
		return "-"
	}
	return strconv.FormatFloat(*r, 'f', 1, 64)
}

// FormatItems lists item names.
func FormatItems(prices []venues.PriceEntry) string {
	if len(prices) == 0 {
		return "-"
	}
	names := make([]string, len(prices))
	for i, p := range prices {
		names[i] = p.ItemName
	}
	return strings.Join(names, ", ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
