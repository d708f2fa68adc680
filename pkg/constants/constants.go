// Package constants provides shared constants used throughout venuemap.
// This includes timeouts, limits, file permissions, geographic defaults and
// the currency fallback table.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout is the standard timeout for requests to upstream APIs
	DefaultHTTPTimeout = 30 * time.Second

	// SourceFetchTimeout bounds each curated or feed fetch during a refresh
	SourceFetchTimeout = 15 * time.Second

	// RatesFetchTimeout bounds a single exchange-rate refresh
	RatesFetchTimeout = 10 * time.Second

	// DefaultRefreshInterval is the default period of the silent auto refresh
	DefaultRefreshInterval = 10 * time.Minute

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 2 * time.Minute

	// ShutdownTimeout bounds graceful server shutdown
	ShutdownTimeout = 10 * time.Second
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for files holding a session token (rw-------)
	SecureFilePermissions = 0600
)

// Limit constants
const (
	// ChannelBufferSize is the default buffer for broadcast and hook channels
	ChannelBufferSize = 100

	// MaxRequestBodyBytes caps JSON request bodies on the HTTP API
	MaxRequestBodyBytes = 1 << 20

	// MaxOverpassResults caps elements requested from the public feed
	MaxOverpassResults = 500

	// CacheTTL is the default lifetime of cached HTTP read responses
	CacheTTL = 30 * time.Second

	// CacheCleanupInterval is how often expired cache entries are purged
	CacheCleanupInterval = 5 * time.Minute

	// FeedCacheTTL is the default lifetime of feed entries in Redis
	FeedCacheTTL = 5 * time.Minute

	// SessionTTL is the lifetime of an operator session token
	SessionTTL = 24 * time.Hour
)

// Geographic defaults
const (
	// DefaultCenterLat and DefaultCenterLng place the initial view over Istanbul
	DefaultCenterLat = 41.0082
	DefaultCenterLng = 28.9784

	// DefaultSearchRadius is the feed search radius in meters
	DefaultSearchRadius = 2000

	// DefaultMergeTolerance is the per-axis degree tolerance for feed dedupe
	DefaultMergeTolerance = 0.0001

	// DefaultViewThreshold is the per-axis degree threshold for a meaningful center change
	DefaultViewThreshold = 0.0005

	// CoordinateEpsilon absorbs float noise in per-axis comparisons
	CoordinateEpsilon = 1e-9

	// DefaultZoom is the initial map zoom level
	DefaultZoom = 14
)

// Preference defaults
const (
	DefaultTheme    = "system"
	DefaultLanguage = "tr"
	DefaultCurrency = "TRY"
	DefaultUIScale  = "comfortable"
)

// Upstream endpoints
const (
	// OverpassURL is the public Overpass interpreter endpoint
	OverpassURL = "https://overpass-api.de/api/interpreter"

	// RatesURL is the exchange-rate API base; the base currency is appended
	RatesURL = "https://open.er-api.com/v6/latest"

	// UnnamedVenue is used when a feed element carries no name tag
	UnnamedVenue = "Unnamed Cafe"
)

// FallbackRates is the USD-based table used until a live table arrives.
var FallbackRates = map[string]float64{
	"USD": 1,
	"TRY": 31.2,
	"EUR": 0.92,
	"GBP": 0.78,
}

// Paths
const (
	DefaultStatePath  = "~/.venuemap/state.yaml"
	DefaultConfigPath = "~/.venuemap.yaml"
)

// Time formats
const (
	TimeFormatISO8601 = time.RFC3339
	TimeFormatHuman   = "Jan 2, 2006 at 3:04pm MST"
)
