// Package state defines the record that survives restarts and the stores
// that keep it. Only preferences, the operator session, the view center, the
// UI scale and an optional venue warm-start cache are persisted; the cache
// is stale by definition and is always reconciled again on load.
package state

import (
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Version is the current record layout.
const Version = 1

// Theme is the UI color scheme.
type Theme string

// Themes.
const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, nil
	default:
		return "", errors.NewValidationError("theme", s, "must be light, dark or system")
	}
}

// UIScale is the density of lists and panels.
type UIScale string

// UI scales.
const (
	ScaleCompact     UIScale = "compact"
	ScaleComfortable UIScale = "comfortable"
)

// ParseUIScale validates a UI scale name.
func ParseUIScale(s string) (UIScale, error) {
	switch u := UIScale(strings.ToLower(strings.TrimSpace(s))); u {
	case ScaleCompact, ScaleComfortable:
		return u, nil
	default:
		return "", errors.NewValidationError("ui_scale", s, "must be compact or comfortable")
	}
}

// ParseLanguage canonicalizes a BCP 47 tag to its base language.
func ParseLanguage(s string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", errors.NewValidationError("language", s, "must be a BCP 47 language tag")
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// Session is an authenticated operator session.
type Session struct {
	User      string    `json:"user" yaml:"user"`
	Token     string    `json:"token" yaml:"token"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || s.Token == "" || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}

// Preferences are the user-facing settings.
type Preferences struct {
	Theme    Theme         `json:"theme" yaml:"theme"`
	Language string        `json:"language" yaml:"language"`
	Currency currency.Code `json:"currency" yaml:"currency"`
	UIScale  UIScale       `json:"ui_scale" yaml:"ui_scale"`
}

// DefaultPreferences returns the initial settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:    ThemeSystem,
		Language: constants.DefaultLanguage,
		Currency: currency.Code(constants.DefaultCurrency),
		UIScale:  UIScale(constants.DefaultUIScale),
	}
}

// Normalize replaces invalid values with defaults.
func (p Preferences) Normalize() Preferences {
	def := DefaultPreferences()
	if t, err := ParseTheme(string(p.Theme)); err == nil {
		def.Theme = t
	}
	if l, err := ParseLanguage(p.Language); err == nil && p.Language != "" {
		def.Language = l
	}
	if c := currency.Normalize(string(p.Currency)); c.Valid() {
		def.Currency = c
	}
	if u, err := ParseUIScale(string(p.UIScale)); err == nil {
		def.UIScale = u
	}
	return def
}

// Persisted is the record written to disk.
type Persisted struct {
	Version     int               `json:"version" yaml:"version"`
	Preferences Preferences       `json:"preferences" yaml:"preferences"`
	Session     *Session          `json:"session,omitempty" yaml:"session,omitempty"`
	Center      venues.Coordinate `json:"center" yaml:"center"`
	Venues      []venues.Venue    `json:"venues,omitempty" yaml:"venues,omitempty"`
	SavedAt     time.Time         `json:"saved_at" yaml:"saved_at"`
}

// Default returns the record used when nothing has been saved yet.
func Default() Persisted {
	return Persisted{
		Version:     Version,
		Preferences: DefaultPreferences(),
		Center:      venues.Coordinate{Latitude: constants.DefaultCenterLat, Longitude: constants.DefaultCenterLng},
	}
}

// Normalize repairs a loaded record so every field is usable.
func (p Persisted) Normalize() Persisted {
	p.Version = Version
	p.Preferences = p.Preferences.Normalize()
	if !p.Center.Valid() || (p.Center == venues.Coordinate{}) {
		p.Center = Default().Center
	}
	if p.Session != nil && p.Session.Token == "" {
		p.Session = nil
	}
	return p
}
