// Package redis caches feed results in Redis, keyed by rounded coordinates
// and radius.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/sources"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Compile-time interface checks.
var (
	_ sources.Feed   = (*Feed)(nil)
	_ sources.Closer = (*Feed)(nil)
)

// KV is the subset of the Redis client the cache uses.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// keyPrecision is the number of decimals coordinates are rounded to.
const keyPrecision = 4

// Feed is a read-through cache in front of another feed. Cache failures
// are logged and fall through to the wrapped feed.
type Feed struct {
	inner  sources.Feed
	kv     KV
	ttl    time.Duration
	prefix string
	closer func() error
}

// Option configures a Feed.
type Option func(*Feed)

// WithTTL sets the lifetime of cached entries.
func WithTTL(ttl time.Duration) Option {
	return func(f *Feed) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(f *Feed) {
		if prefix != "" {
			f.prefix = prefix
		}
	}
}

// Dial connects to Redis at addr and wraps inner.
func Dial(ctx context.Context, addr string, inner sources.Feed, opts ...Option) (*Feed, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.WrapFetch(sources.RedisID.String(), err)
	}
	f := New(client, inner, opts...)
	f.closer = client.Close
	return f, nil
}

// New wraps inner with a cache over kv.
func New(kv KV, inner sources.Feed, opts ...Option) *Feed {
	f := &Feed{
		inner:  inner,
		kv:     kv,
		ttl:    constants.FeedCacheTTL,
		prefix: "venuemap:feed",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ID reports the wrapped feed so failures stay attributed to it.
func (f *Feed) ID() sources.ID {
	return f.inner.ID()
}

// Ping checks the connection to the Redis server.
func (f *Feed) Ping(ctx context.Context) string {
	if err := f.kv.Ping(ctx).Err(); err != nil {
		return fmt.Sprintf("down: %v", err)
	}
	return "up"
}

// Close closes the connection opened by Dial.
func (f *Feed) Close() error {
	if f.closer != nil {
		return f.closer()
	}
	return nil
}

// Key returns the cache key for a query.
func (f *Feed) Key(lat, lon float64, radiusMeters int) string {
	return fmt.Sprintf("%s:%s:%.*f:%.*f:%d",
		f.prefix, f.inner.ID(), keyPrecision, round(lat), keyPrecision, round(lon), radiusMeters)
}

func round(x float64) float64 {
	scale := math.Pow10(keyPrecision)
	r := math.Round(x*scale) / scale
	if r == 0 {
		return 0 // drops negative zero
	}
	return r
}

// NearbyVenues implements sources.Feed.
func (f *Feed) NearbyVenues(ctx context.Context, lat, lon float64, radiusMeters int) ([]venues.Venue, error) {
	logger := logging.FromContext(ctx)
	key := f.Key(lat, lon, radiusMeters)

	raw, err := f.kv.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []venues.Venue
		if err := json.Unmarshal(raw, &cached); err == nil {
			logger.Debug().Str("key", key).Int("venues", len(cached)).Msg("Feed cache hit")
			return cached, nil
		}
		logger.Warn().Str("key", key).Msg("Discarding unreadable feed cache entry")
	case errors.Is(err, redis.Nil):
	default:
		logger.Warn().Err(err).Str("source", sources.RedisID.String()).Msg("Feed cache read failed, fetching directly")
	}

	vs, err := f.inner.NearbyVenues(ctx, lat, lon, radiusMeters)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(vs)
	if err != nil {
		return vs, nil
	}
	if err := f.kv.Set(ctx, key, payload, f.ttl).Err(); err != nil {
		logger.Warn().Err(err).Str("source", sources.RedisID.String()).Msg("Feed cache write failed")
	}
	return vs, nil
}
