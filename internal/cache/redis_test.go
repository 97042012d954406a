package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"HackathonSync/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要真实 Redis：REDIS_ADDR=localhost:6379 go test ./internal/cache
func testCache(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR 未设置，跳过 Redis 集成测试")
	}
	c, err := NewRedisCache(context.Background(), config.RedisConfig{Addr: addr, DB: 15, TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	type payload struct {
		IDs []string `json:"ids"`
	}
	var got payload
	hit, err := c.Get(ctx, "test:missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "test:key", payload{IDs: []string{"a", "b"}}))
	hit, err = c.Get(ctx, "test:key", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, got.IDs)
}

func TestRedisCacheBump(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	before, err := c.Version(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Bump(ctx))
	after, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisCache(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
