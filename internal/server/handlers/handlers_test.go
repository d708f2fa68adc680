package handlers

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/filter"
)

func TestCriteriaFromQuery(t *testing.T) {
	q := url.Values{
		"q":          {"kahve"},
		"min_price":  {"50"},
		"max_price":  {"100.5"},
		"min_rating": {"4"},
		"sort":       {"price"},
		"desc":       {"true"},
		"currency":   {"usd"},
		"limit":      {"5"},
	}

	c, err := CriteriaFromQuery(q)
	require.NoError(t, err)
	assert.Equal(t, "kahve", c.Query)
	assert.Equal(t, filter.SortPrice, c.Sort)
	assert.True(t, c.Descending)
	assert.Equal(t, "USD", c.Currency.String())
	assert.Equal(t, 5, c.Limit)
	require.NotNil(t, c.MinPrice)
	assert.True(t, c.MinPrice.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, c.MaxPrice)
	assert.Equal(t, "100.5", c.MaxPrice.String())
	require.NotNil(t, c.MinRating)
	assert.Equal(t, 4.0, *c.MinRating)
}

func TestCriteriaFromQueryEmpty(t *testing.T) {
	c, err := CriteriaFromQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, filter.Criteria{}, c)
}

func TestCriteriaFromQueryInvalid(t *testing.T) {
	tests := map[string]url.Values{
		"sort":       {"sort": {"distance"}},
		"min_rating": {"min_rating": {"-1"}},
		"desc":       {"desc": {"maybe"}},
		"limit":      {"limit": {"ten"}},
		"max_price":  {"max_price": {"-3"}},
		"currency":   {"currency": {"euros"}},
	}
	for name, q := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := CriteriaFromQuery(q)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}
