package venuemap

import (
	"time"

	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/state"
)

// Compile-time interface check to ensure proper implementation.
var _ Settings = (*client)(nil)

// Settings holds preferences and the operator session.
type Settings interface {
	// Preferences returns the current preferences
	Preferences() state.Preferences

	// UpdatePreferences applies the non-nil fields of patch
	UpdatePreferences(patch PreferencesPatch) (state.Preferences, error)

	// Session returns the operator session, or nil when signed out or expired
	Session() *state.Session

	// SetSession stores a signed-in operator session
	SetSession(s state.Session) error

	// ClearSession signs the operator out
	ClearSession()
}

// PreferencesPatch is a partial preferences update. Nil fields are left alone.
type PreferencesPatch struct {
	Theme    *string `json:"theme,omitempty"`
	Language *string `json:"language,omitempty"`
	Currency *string `json:"currency,omitempty"`
	UIScale  *string `json:"ui_scale,omitempty"`
}

func (c *client) Preferences() state.Preferences {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prefs
}

// UpdatePreferences validates every field before applying any of them.
func (c *client) UpdatePreferences(patch PreferencesPatch) (state.Preferences, error) {
	c.mu.RLock()
	next := c.prefs
	c.mu.RUnlock()

	if patch.Theme != nil {
		t, err := state.ParseTheme(*patch.Theme)
		if err != nil {
			return state.Preferences{}, err
		}
		next.Theme = t
	}
	if patch.Language != nil {
		l, err := state.ParseLanguage(*patch.Language)
		if err != nil {
			return state.Preferences{}, err
		}
		next.Language = l
	}
	if patch.Currency != nil {
		code := currency.Normalize(*patch.Currency)
		if !code.Valid() {
			return state.Preferences{}, errors.NewValidationError("currency", *patch.Currency, "must be a three-letter code")
		}
		next.Currency = code
	}
	if patch.UIScale != nil {
		u, err := state.ParseUIScale(*patch.UIScale)
		if err != nil {
			return state.Preferences{}, err
		}
		next.UIScale = u
	}

	c.mu.Lock()
	c.prefs = next
	c.mu.Unlock()
	c.autoSave()
	return next, nil
}

func (c *client) Session() *state.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session.Expired(c.options.now()) {
		return nil
	}
	return copySession(c.session)
}

func (c *client) SetSession(s state.Session) error {
	if s.Token == "" {
		return errors.NewValidationError("token", nil, "cannot be empty")
	}
	if !s.ExpiresAt.IsZero() && !c.options.now().Before(s.ExpiresAt) {
		return errors.NewValidationError("expires_at", s.ExpiresAt.Format(time.RFC3339), "session already expired")
	}
	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()
	c.autoSave()
	return nil
}

func (c *client) ClearSession() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	c.autoSave()
}
