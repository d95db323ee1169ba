package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSettingsCache_NilClientIsAMiss(t *testing.T) {
	c := NewSettingsCache(nil, 0, nil)
	c.Set(context.Background(), "k", "v")
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
	c.Invalidate(context.Background(), "k")
}

func TestSettingsCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	c := NewSettingsCache(client, time.Minute, zap.NewNop())
	key := "TEST_" + uuid.NewString()

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	c.Set(ctx, key, "true")
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "true", got)

	c.Invalidate(ctx, key)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
}
