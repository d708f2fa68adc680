package state_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/state"
	"github.com/agentstation/venuemap/pkg/venues"
)

func sample() state.Persisted {
	p := state.Default()
	p.Preferences.Theme = state.ThemeDark
	p.Preferences.Language = "en"
	p.Preferences.Currency = "USD"
	p.Preferences.UIScale = state.ScaleCompact
	p.Center = venues.Coordinate{Latitude: 41.0122, Longitude: 28.9760}
	p.Session = &state.Session{User: "ops", Token: "tok", ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	p.Venues = []venues.Venue{{
		ID: "c1", Name: "Lab Coffee", Latitude: 41.0122, Longitude: 28.9760,
		Prices: []venues.PriceEntry{{ItemName: "Latte", Price: decimal.NewFromInt(85), Currency: "TRY"}},
	}}
	return p
}

func TestDefaults(t *testing.T) {
	d := state.Default()
	assert.Equal(t, state.ThemeSystem, d.Preferences.Theme)
	assert.Equal(t, "tr", d.Preferences.Language)
	assert.Equal(t, "TRY", d.Preferences.Currency.String())
	assert.Equal(t, state.ScaleComfortable, d.Preferences.UIScale)
	assert.Equal(t, venues.Coordinate{Latitude: 41.0082, Longitude: 28.9784}, d.Center)
	assert.Nil(t, d.Session)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")
	store, err := state.NewFileStore(path)
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.Default().Preferences, loaded.Preferences, "missing file loads defaults")

	require.NoError(t, store.Save(ctx, sample(), state.WithVenueCache(true)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample().Preferences, got.Preferences)
	assert.Equal(t, sample().Center, got.Center)
	require.NotNil(t, got.Session)
	assert.Equal(t, "tok", got.Session.Token)
	require.Len(t, got.Venues, 1)
	assert.True(t, got.Venues[0].Prices[0].Price.Equal(decimal.NewFromInt(85)))
	assert.False(t, got.SavedAt.IsZero())

	require.NoError(t, store.Reset())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, store.Reset(), "reset of a missing file is a no-op")
}

func TestFileStoreOmitsVenuesByDefault(t *testing.T) {
	ctx := context.Background()
	store, err := state.NewFileStore(filepath.Join(t.TempDir(), "state.yaml"))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, sample()))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Venues)
}

func TestFileStoreParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("preferences: [unterminated"), 0o600))
	store, err := state.NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	var perr *pkgerrors.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestLoadNormalizesGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	raw := "preferences:\n  theme: neon\n  language: en-GB\n  currency: usd\n  ui_scale: huge\nsession:\n  user: ops\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	store, err := state.NewFileStore(path)
	require.NoError(t, err)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state.ThemeSystem, got.Preferences.Theme)
	assert.Equal(t, "en", got.Preferences.Language)
	assert.Equal(t, "USD", got.Preferences.Currency.String())
	assert.Equal(t, state.ScaleComfortable, got.Preferences.UIScale)
	assert.Nil(t, got.Session, "a session without a token is dropped")
	assert.Equal(t, state.Default().Center, got.Center)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := state.NewMemoryStore()
	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.Default().Preferences, got.Preferences)

	p := sample()
	require.NoError(t, m.Save(ctx, p, state.WithVenueCache(true)))
	p.Venues[0].Name = "mutated after save"

	got, err = m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lab Coffee", got.Venues[0].Name)
	assert.Equal(t, 1, m.Saves())
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	var none *state.Session
	assert.True(t, none.Expired(now))
	assert.True(t, (&state.Session{Token: "t", ExpiresAt: now}).Expired(now))
	assert.False(t, (&state.Session{Token: "t", ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.False(t, (&state.Session{Token: "t"}).Expired(now))
}

func TestParsers(t *testing.T) {
	theme, err := state.ParseTheme(" Dark ")
	require.NoError(t, err)
	assert.Equal(t, state.ThemeDark, theme)
	_, err = state.ParseTheme("sepia")
	assert.True(t, pkgerrors.IsValidationError(err))

	lang, err := state.ParseLanguage("tr-TR")
	require.NoError(t, err)
	assert.Equal(t, "tr", lang)
	_, err = state.ParseLanguage("not a tag!")
	assert.Error(t, err)

	scale, err := state.ParseUIScale("COMPACT")
	require.NoError(t, err)
	assert.Equal(t, state.ScaleCompact, scale)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	got, err := state.ExpandPath("~/.venuemap/state.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".venuemap", "state.yaml"), got)

	same, err := state.ExpandPath("/tmp/x.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.yaml", same)
}
