package venues

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/agentstation/venuemap/pkg/errors"
)

// NewPriceEntry validates a submission and builds the entry it describes.
// The currency code is upper-cased; the item name is trimmed but otherwise kept.
func NewPriceEntry(item string, price decimal.Decimal, currency string, at time.Time) (PriceEntry, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return PriceEntry{}, errors.NewValidationError("item_name", item, "cannot be empty")
	}
	if price.IsNegative() {
		return PriceEntry{}, errors.NewValidationError("price", price.String(), "must not be negative")
	}
	code := strings.ToUpper(strings.TrimSpace(currency))
	if !isCurrencyCode(code) {
		return PriceEntry{}, errors.NewValidationError("currency", currency, "must be a three-letter code")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return PriceEntry{ItemName: item, Price: price, Currency: code, UpdatedAt: at}, nil
}

// ApplyPrice returns a copy of v with entry replacing any existing entry for
// the same item (case-insensitive) or appended when there is none.
func (v Venue) ApplyPrice(entry PriceEntry) Venue {
	out := v.Clone()
	fold := cases.Fold()
	key := fold.String(strings.TrimSpace(entry.ItemName))
	for i := range out.Prices {
		if fold.String(strings.TrimSpace(out.Prices[i].ItemName)) == key {
			out.Prices[i] = entry
			return out
		}
	}
	out.Prices = append(out.Prices, entry)
	return out
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
