// Package cache is the interval-keyed Redis cache in front of
// marketdata.Client.History, grounded on aretw0-trellis's
// internal/adapters/redis.Store (a thin client+prefix+ttl wrapper over
// go-redis/v9).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a go-redis client with a key prefix and TTL, mirroring the
// aretw0-trellis redis.Store shape.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Cache at construction.
type Option func(*Cache)

// WithTTL overrides the default cache entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithPrefix overrides the default Redis key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// New builds a Cache against a Redis server at addr.
func New(addr string, opts ...Option) *Cache {
	c := &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: "cryptoasl:marketdata:",
		ttl:    5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the underlying Redis connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// HistoryKey derives a deterministic cache key for one price-history
// request, bucketed by symbol, interval, and the UTC RFC3339 bounds.
func HistoryKey(symbol, interval string, from, to time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", symbol, interval, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

// Point mirrors marketdata.Point's fields without importing the
// marketdata package, avoiding an import cycle between the provider and
// its own cache layer.
type Point struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// GetHistory returns a cached history response, if present and unexpired.
func (c *Cache) GetHistory(ctx context.Context, key string) ([]Point, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	var points []Point
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return points, true, nil
}

// PutHistory stores a history response under key with the configured TTL.
func (c *Cache) PutHistory(ctx context.Context, key string, points []Point) error {
	raw, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}
