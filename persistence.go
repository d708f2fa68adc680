package venuemap

import (
	"context"

	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/state"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Compile-time interface check to ensure proper implementation.
var _ Persistence = (*client)(nil)

// Persistence handles state persistence.
type Persistence interface {
	// Save writes preferences, session, view center and, when enabled, the
	// venue cache to the state store
	Save(ctx context.Context) error
}

func (c *client) Save(ctx context.Context) error {
	if c.options.store == nil {
		return &errors.ConfigError{Component: "state", Message: "no state store configured"}
	}
	p := c.persisted()
	if err := c.options.store.Save(ctx, p, state.WithVenueCache(c.options.venueCache)); err != nil {
		return errors.WrapResource("save", "state", "", err)
	}
	logging.FromContext(ctx).Debug().
		Str("center", p.Center.String()).
		Bool("venue_cache", c.options.venueCache).
		Msg("Saved state")
	return nil
}

// persisted builds the record written to the store. Only the fields listed
// in state.Persisted survive a restart.
func (c *client) persisted() state.Persisted {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p := state.Persisted{
		Version:     state.Version,
		Preferences: c.prefs,
		Session:     copySession(c.session),
		Center:      c.view.Center(),
		SavedAt:     c.options.now().UTC(),
	}
	if c.options.venueCache {
		p.Venues = venues.CloneAll(c.venues)
	}
	return p
}

// autoSave saves after a state change. Failures are logged only.
func (c *client) autoSave() {
	c.autoSaveState(context.Background())
}

func (c *client) autoSaveState(ctx context.Context) {
	if c.options.store == nil || !c.options.autoSave {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.ShutdownTimeout)
	defer cancel()
	if err := c.Save(ctx); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Auto-save failed")
	}
}
