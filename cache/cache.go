package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/TamagotchiFibi/TaskManagementAPI/internal/metrics"
	"github.com/TamagotchiFibi/TaskManagementAPI/kv"
)

// Resource names for cached per-principal read views. The unit of
// invalidation is always one resource type for one owner.
const (
	ResourceUser              = "user"
	ResourceUserTasks         = "user_tasks"
	ResourceUserNotifications = "user_notifications"
)

// Key builds the composite cache key for a resource scoped to its owner.
func Key(resource, ownerID string) string {
	return resource + ":" + ownerID
}

// Cache is the invalidation coordinator. Every method is best-effort: the
// cache is never authoritative, so backend failures are logged and absorbed
// rather than propagated.
type Cache struct {
	store   kv.Store
	ttl     time.Duration
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func New(store kv.Store, ttl time.Duration, log zerolog.Logger, m *metrics.Metrics) *Cache {
	return &Cache{store: store, ttl: ttl, log: log, metrics: m}
}

// Get loads a cached snapshot into dest, reporting whether it was a hit.
// On a hit the snapshot is returned verbatim, without re-validation against
// the source of truth.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			c.log.Warn().Err(err).Str("key", key).Msg("cache read failed, degrading to source")
		}
		c.metrics.Inc(metrics.MetricCacheMiss)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry corrupt, dropping")
		_, _ = c.store.Delete(ctx, key)
		c.metrics.Inc(metrics.MetricCacheMiss)
		return false
	}
	c.metrics.Inc(metrics.MetricCacheHit)
	return true
}

// Put serializes value under key with the fixed TTL. A write failure after
// a successful source-of-truth read must not fail the request, so errors
// are logged and swallowed.
func (c *Cache) Put(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache serialization failed")
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Invalidate deletes the exact keys for mutated resources. Call after the
// mutating transaction commits.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if _, err := c.store.Delete(ctx, key); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
			continue
		}
		c.metrics.Inc(metrics.MetricCacheInvalidation)
	}
}

// InvalidatePattern deletes every key matching a glob pattern.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) {
	keys, err := c.store.Keys(ctx, pattern)
	if err != nil {
		c.log.Warn().Err(err).Str("pattern", pattern).Msg("cache pattern scan failed")
		return
	}
	c.Invalidate(ctx, keys...)
}

// Fetch is the read-through path: return the cached snapshot on a hit,
// otherwise load from the source of truth, populate the cache, and return
// the loaded value. Load errors are the caller's and pass through untouched.
func Fetch[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.Get(ctx, key, &cached) {
		return cached, nil
	}

	loaded, err := load(ctx)
	if err != nil {
		return loaded, err
	}
	c.Put(ctx, key, loaded)
	return loaded, nil
}
