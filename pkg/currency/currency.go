// Package currency converts prices between currencies through a rate table
// anchored to one base currency.
//
// Conversion is fail-open: when either code is missing from the table, or its
// rate is unusable, the amount comes back unchanged so a price can always be
// shown.
package currency

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
)

// Code is an ISO-4217-like currency code.
type Code string

// Common codes.
const (
	USD Code = "USD"
	TRY Code = "TRY"
	EUR Code = "EUR"
	GBP Code = "GBP"
)

// Normalize trims and upper-cases s.
func Normalize(s string) Code {
	return Code(strings.ToUpper(strings.TrimSpace(s)))
}

// String implements fmt.Stringer.
func (c Code) String() string {
	return string(c)
}

// Valid reports whether c is three upper-case letters.
func (c Code) Valid() bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Table maps currency codes to their value relative to Base, which maps to 1.
// A Table is replaced wholesale and never mutated after construction.
type Table struct {
	Base      Code             `json:"base" yaml:"base"`
	Rates     map[Code]float64 `json:"rates" yaml:"rates"`
	UpdatedAt time.Time        `json:"updated_at" yaml:"updated_at"`
	Source    string           `json:"source" yaml:"source"`
}

// NewTable validates rates and builds a table. The base is added with rate 1
// when the rate map omits it. Every rate must be finite and positive.
func NewTable(base Code, rates map[Code]float64, source string, at time.Time) (*Table, error) {
	if !base.Valid() {
		return nil, errors.NewValidationError("base", base, "must be a three-letter code")
	}
	if len(rates) == 0 {
		return nil, errors.NewValidationError("rates", nil, "table is empty")
	}
	out := make(map[Code]float64, len(rates)+1)
	for code, rate := range rates {
		code = Normalize(string(code))
		if !usable(rate) {
			return nil, errors.NewValidationError("rates."+string(code), rate, "must be finite and positive")
		}
		out[code] = rate
	}
	if _, ok := out[base]; !ok {
		out[base] = 1
	}
	return &Table{Base: base, Rates: out, UpdatedAt: at, Source: source}, nil
}

// Fallback returns the static table used until a live refresh succeeds.
func Fallback() *Table {
	rates := make(map[Code]float64, len(constants.FallbackRates))
	for code, rate := range constants.FallbackRates {
		rates[Code(code)] = rate
	}
	return &Table{Base: USD, Rates: rates, Source: "fallback"}
}

// Rate returns the table value for code.
func (t *Table) Rate(code Code) (float64, bool) {
	if t == nil {
		return 0, false
	}
	rate, ok := t.Rates[code]
	return rate, ok && usable(rate)
}

// Has reports whether code has a usable rate.
func (t *Table) Has(code Code) bool {
	_, ok := t.Rate(code)
	return ok
}

// Codes returns the table's codes in sorted order.
func (t *Table) Codes() []Code {
	if t == nil {
		return nil
	}
	codes := make([]Code, 0, len(t.Rates))
	for code := range t.Rates {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// IsFallback reports whether t is the static fallback table.
func (t *Table) IsFallback() bool {
	return t != nil && t.Source == "fallback"
}

// Clone returns a copy whose rate map can be handed to callers.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := *t
	out.Rates = make(map[Code]float64, len(t.Rates))
	for code, rate := range t.Rates {
		out.Rates[code] = rate
	}
	return &out
}

// Convert converts amount and reports whether the table could serve both
// codes. Codes are normalized first. Same-currency conversion always
// succeeds without arithmetic.
func (t *Table) Convert(amount decimal.Decimal, from, to Code) (decimal.Decimal, bool) {
	from, to = Normalize(string(from)), Normalize(string(to))
	if from == to {
		return amount, true
	}
	rateFrom, ok := t.Rate(from)
	if !ok {
		return amount, false
	}
	rateTo, ok := t.Rate(to)
	if !ok {
		return amount, false
	}
	return amount.Div(decimal.NewFromFloat(rateFrom)).Mul(decimal.NewFromFloat(rateTo)), true
}

// Exchange is the strict form of Convert: a code the table cannot serve is
// reported as an error wrapping errors.ErrCurrencyUnknown.
func (t *Table) Exchange(amount decimal.Decimal, from, to Code) (decimal.Decimal, error) {
	from, to = Normalize(string(from)), Normalize(string(to))
	if from == to {
		return amount, nil
	}
	for _, code := range []Code{from, to} {
		if !t.Has(code) {
			return amount, fmt.Errorf("%w: %s", errors.ErrCurrencyUnknown, code)
		}
	}
	out, _ := t.Convert(amount, from, to)
	return out, nil
}

// Convert converts amount from one currency to another through table.
// It returns amount unchanged when the codes match, when table is nil, or
// when either code cannot be served.
func Convert(amount decimal.Decimal, from, to Code, table *Table) decimal.Decimal {
	out, _ := table.Convert(amount, from, to)
	return out
}

func usable(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}
