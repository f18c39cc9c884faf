package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := DefaultRedisConfig()
	cfg.Host = mr.Host()
	cfg.Port = mr.Port()
	cfg.MaxRetries = -1
	client, err := NewRedisClient(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func newTestLocal(t *testing.T) *LocalCache {
	t.Helper()
	cfg := DefaultLocalCacheConfig()
	cfg.Shards = 16
	local, err := NewLocalCache(cfg, nil)
	require.NoError(t, err)
	return local
}

func TestNewRedisClientFailsFast(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := DefaultRedisConfig()
	cfg.Host = mr.Host()
	cfg.Port = mr.Port()
	mr.Close()

	_, err := NewRedisClient(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestRedisClientGetMissAndHit(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	_, err := client.Get(ctx, "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))
	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	metrics := client.GetMetrics()
	assert.Equal(t, int64(1), metrics["hits"])
	assert.Equal(t, int64(1), metrics["misses"])
	assert.InDelta(t, 50.0, client.GetHitRate(), 0.001)
}

func TestRedisClientUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close()

	_, err := client.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCacheUnavailable)
	assert.Error(t, client.HealthCheck(context.Background()))
}

func TestRedisClientIncr(t *testing.T) {
	_, client := newTestRedis(t)

	for want := int64(1); want <= 3; want++ {
		got, err := client.Incr(context.Background(), "seq")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestLocalCache(t *testing.T) {
	local := newTestLocal(t)
	defer local.Close()

	_, err := local.Get("k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, local.SetString("k", "v"))
	got, err := local.GetString("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.Equal(t, 1, local.Len())

	require.NoError(t, local.Delete("k"))
	require.NoError(t, local.Delete("k"), "deleting a missing key is not an error")
	_, err = local.Get("k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	metrics := local.GetMetrics()
	assert.Equal(t, int64(1), metrics["hits"])
	assert.Equal(t, int64(2), metrics["misses"])
	assert.Equal(t, int64(1), metrics["sets"])
}

func TestCacheManagerTiers(t *testing.T) {
	mr, redisClient := newTestRedis(t)
	local := newTestLocal(t)
	cm := NewCacheManager(local, redisClient, nil, nil)
	defer cm.Close()
	ctx := context.Background()

	_, source, err := cm.Get(ctx, "user:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, "miss", source)

	// Present only in Redis: served from Redis and written back to local.
	require.NoError(t, mr.Set("user:1", "from-redis"))
	value, source, err := cm.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, "from-redis", value)
	assert.Equal(t, "redis", source)

	value, source, err = cm.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, "from-redis", value)
	assert.Equal(t, "local", source)

	require.NoError(t, cm.Delete(ctx, "user:1"))
	assert.False(t, mr.Exists("user:1"))
	_, _, err = cm.Get(ctx, "user:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheManagerJSON(t *testing.T) {
	mr, redisClient := newTestRedis(t)
	cm := NewCacheManager(newTestLocal(t), redisClient, nil, nil)
	defer cm.Close()
	ctx := context.Background()

	require.NoError(t, cm.SetJSON(ctx, "user:7", cachedUser{ID: 7, Email: "x@y.z"}))
	assert.Equal(t, 10*time.Minute, mr.TTL("user:7"))

	var got cachedUser
	source, err := cm.GetJSON(ctx, "user:7", &got)
	require.NoError(t, err)
	assert.Equal(t, "local", source)
	assert.Equal(t, cachedUser{ID: 7, Email: "x@y.z"}, got)

	require.NoError(t, mr.Set("user:8", "{not json"))
	_, err = cm.GetJSON(ctx, "user:8", &got)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestCacheManagerGracefulDegradation(t *testing.T) {
	mr, redisClient := newTestRedis(t)
	ctx := context.Background()

	graceful := NewCacheManager(nil, redisClient, nil, nil)
	strictCfg := DefaultCacheManagerConfig()
	strictCfg.GracefulDegradation = false
	strict := NewCacheManager(nil, redisClient, strictCfg, nil)

	mr.Close()

	_, source, err := graceful.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, "miss", source)
	assert.NoError(t, graceful.Set(ctx, "k", "v"))

	_, source, err = strict.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheUnavailable)
	assert.Equal(t, "error", source)
	assert.Error(t, strict.Set(ctx, "k", "v"))
	assert.Error(t, strict.Delete(ctx, "k"))
}

func TestCacheManagerWithoutTiers(t *testing.T) {
	cm := NewCacheManager(nil, nil, nil, nil)
	ctx := context.Background()

	assert.NoError(t, cm.Set(ctx, "k", "v"))
	_, _, err := cm.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, cm.Delete(ctx, "k"))
	assert.Equal(t, map[string]string{"local": "disabled", "redis": "disabled"}, cm.HealthCheck(ctx))
	assert.Empty(t, cm.GetMetrics())
	assert.NoError(t, cm.Close())
}

func TestCacheManagerHealthCheck(t *testing.T) {
	_, redisClient := newTestRedis(t)
	cm := NewCacheManager(newTestLocal(t), redisClient, nil, nil)
	defer cm.Close()

	health := cm.HealthCheck(context.Background())
	assert.Equal(t, "healthy", health["local"])
	assert.Equal(t, "0", health["local_entries"])
	assert.Equal(t, "healthy", health["redis"])

	metrics := cm.GetMetrics()
	assert.Contains(t, metrics, "local")
	assert.Contains(t, metrics, "redis_hit_rate")
}

func TestInvalidateAndRefreshReportRedisFailures(t *testing.T) {
	mr, redisClient := newTestRedis(t)
	local := newTestLocal(t)
	cm := NewCacheManager(local, redisClient, nil, nil)
	defer cm.Close()
	ctx := context.Background()

	require.NoError(t, cm.Refresh(ctx, "user:1", cachedUser{ID: 1, Email: "a@b.c"}))
	assert.True(t, mr.Exists("user:1"))
	assert.Equal(t, 10*time.Minute, mr.TTL("user:1"))

	mr.SetError("LOADING Redis is loading the dataset in memory")

	err := cm.Refresh(ctx, "user:1", cachedUser{ID: 1, Email: "new@b.c"})
	assert.ErrorIs(t, err, ErrCacheUnavailable)

	err = cm.Invalidate(ctx, "user:1")
	assert.ErrorIs(t, err, ErrCacheUnavailable)
	_, err = local.Get("user:1")
	assert.ErrorIs(t, err, ErrCacheMiss, "local tier is cleared even when Redis fails")

	assert.NoError(t, cm.Delete(ctx, "user:1"), "Delete stays graceful")

	mr.SetError("")
	require.NoError(t, cm.Invalidate(ctx, "user:1"))
	assert.False(t, mr.Exists("user:1"))
}
