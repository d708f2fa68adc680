package venuemap

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoRefresher = (*client)(nil)

// AutoRefresher controls the background refresh.
type AutoRefresher interface {
	// AutoRefreshOn starts silent refreshes of the venues at the current
	// view center and of the rate table
	AutoRefreshOn() error

	// AutoRefreshOff stops the background refresh
	AutoRefreshOff() error
}

func (c *client) AutoRefreshOn() error {
	if c.options.autoRefreshInterval <= 0 {
		return &errors.ValidationError{
			Field:   "autoRefreshInterval",
			Value:   c.options.autoRefreshInterval,
			Message: "refresh interval must be positive",
		}
	}

	// Stop any running refresh loop first
	if err := c.AutoRefreshOff(); err != nil {
		return err
	}

	c.autoMu.Lock()
	defer c.autoMu.Unlock()

	c.stopCh = make(chan struct{})
	c.refreshTicker = time.NewTicker(c.options.autoRefreshInterval)
	ctx, cancel := context.WithCancel(context.Background())
	c.refreshCancel = cancel

	go c.refreshLoop(ctx, c.refreshTicker, c.stopCh)
	return nil
}

func (c *client) refreshLoop(parentCtx context.Context, ticker *time.Ticker, stopCh <-chan struct{}) {
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(parentCtx, constants.CommandTimeout)
			err := c.refreshOnce(ctx)
			cancel()
			if err != nil {
				if stderrors.Is(err, context.Canceled) {
					return
				}
				logging.Error().Err(err).Msg("Auto refresh failed")
			}
		case <-parentCtx.Done():
			return
		case <-stopCh:
			return
		}
	}
}

// refreshOnce refreshes the venues at the current center without touching
// the loading flag, then the rates.
func (c *client) refreshOnce(ctx context.Context) error {
	center := c.Center()
	if _, err := c.RefreshVenues(ctx, center.Latitude, center.Longitude, Silent(), WithReason("auto")); err != nil {
		return err
	}
	if c.options.rates == nil {
		return nil
	}
	if err := c.RefreshRates(ctx); err != nil && !errors.IsSourceUnavailable(err) {
		return err
	}
	return nil
}

func (c *client) AutoRefreshOff() error {
	c.autoMu.Lock()
	defer c.autoMu.Unlock()

	if c.refreshTicker != nil {
		c.refreshTicker.Stop()
		c.refreshTicker = nil
	}
	if c.refreshCancel != nil {
		c.refreshCancel()
		c.refreshCancel = nil
	}
	select {
	case <-c.stopCh:
		// Already closed
	default:
		close(c.stopCh)
	}
	return nil
}
