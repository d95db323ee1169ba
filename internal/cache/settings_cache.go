package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const settingsKeyPrefix = "helpdesk:setting:"

// SettingsCache is a read-through cache of setting values. Every method
// degrades to a miss when Redis is absent or failing.
type SettingsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSettingsCache wraps client; a nil client disables caching.
func NewSettingsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SettingsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached value for key.
func (c *SettingsCache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	value, err := c.client.Get(ctx, settingsKeyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("settings cache read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return value, true
}

// Set stores value for key with the configured TTL.
func (c *SettingsCache) Set(ctx context.Context, key, value string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, settingsKeyPrefix+key, value, c.ttl).Err(); err != nil {
		c.logger.Debug("settings cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops keys from the cache.
func (c *SettingsCache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = settingsKeyPrefix + key
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		c.logger.Warn("settings cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
