package venuemap

import (
	"context"

	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/logging"
)

func (c *client) RefreshRates(ctx context.Context) error {
	src := c.options.rates
	if src == nil {
		return &errors.ConfigError{Component: "rates", Message: "no rate source configured"}
	}

	logger := logging.FromContext(ctx).With().
		Str("operation", "refresh_rates").
		Str("source", src.ID().String()).
		Logger()

	table, err := within(ctx, c.options.ratesTimeout, func(ctx context.Context) (*currency.Table, error) {
		return src.Rates(ctx, c.options.baseCurrency)
	})
	if err == nil {
		// re-validate whatever the source built
		if table == nil {
			err = errors.New("empty rate table")
		} else {
			table, err = currency.NewTable(table.Base, table.Rates, table.Source, table.UpdatedAt)
		}
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Rate refresh failed, keeping previous table")
		return errors.WrapFetch(src.ID().String(), err)
	}

	c.mu.Lock()
	c.rates = table
	c.mu.Unlock()

	logger.Info().
		Str("base", table.Base.String()).
		Int("currencies", len(table.Rates)).
		Msg("Refreshed exchange rates")

	c.hooks.triggerRates(table)
	return nil
}
