package venuemap

import (
	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/venues"
	"github.com/agentstation/venuemap/pkg/viewsync"
)

// Compile-time interface check to ensure proper implementation.
var _ Navigator = (*client)(nil)

// Navigator mediates the map's center of interest. Programmatic requests go
// through ProposeCenter and may fly the map; the map's own move events go
// through ReportPan and never do.
type Navigator interface {
	// Center returns the current center of interest
	Center() venues.Coordinate

	// ProposeCenter requests a programmatic move (geolocation, search, re-scan)
	ProposeCenter(target venues.Coordinate, reason string) viewsync.Outcome

	// ReportPan records where the rendered map settled after a user gesture
	ReportPan(reported venues.Coordinate) viewsync.Outcome
}

func (c *client) Center() venues.Coordinate {
	return c.view.Center()
}

func (c *client) ProposeCenter(target venues.Coordinate, reason string) viewsync.Outcome {
	outcome := c.propose(target, reason)
	if !outcome.Changed {
		logging.Default().Trace().
			Str("target", target.String()).
			Str("reason", reason).
			Msg("Suppressed center update within threshold")
		return outcome
	}
	c.autoSave()
	return outcome
}

func (c *client) ReportPan(reported venues.Coordinate) viewsync.Outcome {
	c.mu.Lock()
	outcome := c.view.ReportPan(reported)
	c.mu.Unlock()
	c.hooks.triggerView(outcome)
	if outcome.Changed {
		c.autoSave()
	}
	return outcome
}
