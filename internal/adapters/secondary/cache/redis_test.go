package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestRedisCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	c := NewRedisCache(Options{Addr: startRedis(t), KeyPrefix: "test:"})
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Ping(ctx))

	t.Run("miss", func(t *testing.T) {
		payload, ok, err := c.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, payload)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "kpi:summary", []byte(`{"count":3}`), time.Minute))

		payload, ok, err := c.Get(ctx, "kpi:summary")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"count":3}`, string(payload))

		ttl, err := c.client.TTL(ctx, "test:kpi:summary").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("entries expire", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "short", []byte("x"), 50*time.Millisecond))
		require.Eventually(t, func() bool {
			_, ok, err := c.Get(ctx, "short")
			return err == nil && !ok
		}, 5*time.Second, 50*time.Millisecond)
	})
}

func TestRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c := NewRedisCache(Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = c.Close() })

	_, _, err := c.Get(ctx, "key")
	assert.Error(t, err)
	assert.Error(t, c.Ping(ctx))
	assert.Error(t, c.Set(ctx, "key", []byte("v"), time.Minute))
}

func TestNopCache(t *testing.T) {
	ctx := context.Background()
	var c NopCache

	require.NoError(t, c.Set(ctx, "key", []byte("v"), time.Minute))
	payload, ok, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, payload)
}

func TestRedisCache_NilPing(t *testing.T) {
	var c *RedisCache
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}
