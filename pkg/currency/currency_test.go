package currency_test

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/venuemap/pkg/currency"
	pkgerrors "github.com/agentstation/venuemap/pkg/errors"
)

func scenarioTable(t *testing.T) *currency.Table {
	t.Helper()
	table, err := currency.NewTable(currency.USD, map[currency.Code]float64{
		"TRY": 31.2,
		"USD": 1,
		"EUR": 0.92,
	}, "test", time.Now())
	require.NoError(t, err)
	return table
}

func TestConvertTRYToUSD(t *testing.T) {
	got := currency.Convert(decimal.NewFromInt(85), "TRY", "USD", scenarioTable(t))
	f, _ := got.Float64()
	assert.InDelta(t, 2.724, f, 0.001)
}

func TestConvertIdentity(t *testing.T) {
	amounts := []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromFloat(0.1),
		decimal.RequireFromString("123456789.987654321"),
	}
	tables := map[string]*currency.Table{
		"nil":      nil,
		"fallback": currency.Fallback(),
		"scenario": scenarioTable(t),
	}
	for name, table := range tables {
		for _, amount := range amounts {
			for _, code := range []currency.Code{"TRY", "XYZ", "USD"} {
				got := currency.Convert(amount, code, code, table)
				assert.True(t, amount.Equal(got), "%s: %s %s", name, amount, code)
			}
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	table := scenarioTable(t)
	pairs := [][2]currency.Code{{"TRY", "USD"}, {"USD", "EUR"}, {"EUR", "TRY"}}
	for _, pair := range pairs {
		for _, x := range []float64{1, 85, 0.37, 12999.5} {
			amount := decimal.NewFromFloat(x)
			there := currency.Convert(amount, pair[0], pair[1], table)
			back, _ := currency.Convert(there, pair[1], pair[0], table).Float64()
			assert.InDelta(t, x, back, 1e-9, "%v %s->%s->%s", x, pair[0], pair[1], pair[0])
		}
	}
}

func TestConvertFailOpen(t *testing.T) {
	amount := decimal.NewFromInt(85)

	t.Run("nil table", func(t *testing.T) {
		assert.True(t, amount.Equal(currency.Convert(amount, "TRY", "USD", nil)))
	})

	t.Run("unknown source code", func(t *testing.T) {
		table := scenarioTable(t)
		got, ok := table.Convert(amount, "JPY", "USD")
		assert.False(t, ok)
		assert.True(t, amount.Equal(got))
	})

	t.Run("unknown target code", func(t *testing.T) {
		assert.True(t, amount.Equal(currency.Convert(amount, "TRY", "GBP", scenarioTable(t))))
	})

	t.Run("non-positive rate", func(t *testing.T) {
		table := &currency.Table{Base: "USD", Rates: map[currency.Code]float64{"USD": 1, "TRY": 0}}
		got, ok := table.Convert(amount, "TRY", "USD")
		assert.False(t, ok)
		assert.True(t, amount.Equal(got))
	})
}

func TestConvertNormalizesCodes(t *testing.T) {
	table := scenarioTable(t)
	got, ok := table.Convert(decimal.NewFromInt(85), " try", "usd")
	require.True(t, ok)
	assert.InDelta(t, 2.724, got.InexactFloat64(), 0.001)
	assert.True(t, got.Equal(currency.Convert(decimal.NewFromInt(85), "TRY", "USD", table)))
}

func TestExchange(t *testing.T) {
	table := scenarioTable(t)
	amount := decimal.NewFromInt(85)

	got, err := table.Exchange(amount, "try", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 2.724, got.InexactFloat64(), 0.001)

	got, err = table.Exchange(amount, "XYZ", "XYZ")
	require.NoError(t, err)
	assert.True(t, amount.Equal(got))

	got, err = table.Exchange(amount, "TRY", "gbp")
	assert.ErrorIs(t, err, pkgerrors.ErrCurrencyUnknown)
	assert.ErrorContains(t, err, "GBP")
	assert.True(t, amount.Equal(got))

	var missing *currency.Table
	_, err = missing.Exchange(amount, "TRY", "USD")
	assert.ErrorIs(t, err, pkgerrors.ErrCurrencyUnknown)
}

func TestNewTable(t *testing.T) {
	t.Run("adds base", func(t *testing.T) {
		table, err := currency.NewTable("EUR", map[currency.Code]float64{"usd": 1.08}, "erapi", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 1.0, table.Rates["EUR"])
		assert.Equal(t, 1.08, table.Rates["USD"])
		assert.Equal(t, []currency.Code{"EUR", "USD"}, table.Codes())
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := currency.NewTable("USD", nil, "erapi", time.Time{})
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("rejects unusable rate", func(t *testing.T) {
		_, err := currency.NewTable("USD", map[currency.Code]float64{"TRY": math.NaN()}, "erapi", time.Time{})
		assert.True(t, pkgerrors.IsValidationError(err))
		_, err = currency.NewTable("USD", map[currency.Code]float64{"TRY": -2}, "erapi", time.Time{})
		assert.Error(t, err)
	})

	t.Run("rejects bad base", func(t *testing.T) {
		_, err := currency.NewTable("dollars", map[currency.Code]float64{"USD": 1}, "erapi", time.Time{})
		assert.Error(t, err)
	})
}

func TestFallback(t *testing.T) {
	fb := currency.Fallback()
	assert.True(t, fb.IsFallback())
	assert.Equal(t, currency.USD, fb.Base)
	assert.Equal(t, 31.2, fb.Rates["TRY"])
	assert.Equal(t, 0.78, fb.Rates["GBP"])

	clone := fb.Clone()
	clone.Rates["TRY"] = 99
	assert.Equal(t, 31.2, fb.Rates["TRY"])
	assert.Equal(t, 31.2, currency.Fallback().Rates["TRY"])
}

func TestCode(t *testing.T) {
	assert.Equal(t, currency.Code("TRY"), currency.Normalize(" try "))
	assert.True(t, currency.Code("EUR").Valid())
	assert.False(t, currency.Code("EU").Valid())
	assert.False(t, currency.Code("eur").Valid())
	assert.False(t, (*currency.Table)(nil).Has("USD"))
}
