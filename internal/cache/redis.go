package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// ErrCacheMiss is returned when key doesn't exist (not an actual error)
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheUnavailable is returned when Redis is down or unreachable
	ErrCacheUnavailable = errors.New("cache unavailable")
)

type RedisClient struct {
	client  *redis.Client
	metrics *CacheMetrics
	logger  *zap.Logger
}

// CacheMetrics tracks cache performance for observability
type CacheMetrics struct {
	Hits   atomic.Int64
	Misses atomic.Int64
	Errors atomic.Int64
}

type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Host:         "localhost",
		Port:         "6379",
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewRedisClient connects and pings Redis, failing fast if it is unreachable.
func NewRedisClient(config *RedisConfig, logger *zap.Logger) (*RedisClient, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Host + ":" + config.Port,
		Password:     config.Password,
		DB:           config.DB,
		MaxRetries:   config.MaxRetries,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolTimeout:  4 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s:%s: %w",
			config.Host, config.Port, err)
	}

	logger.Info("Connected to Redis",
		zap.String("addr", config.Host+":"+config.Port),
		zap.Int("db", config.DB))

	return &RedisClient{
		client:  client,
		metrics: &CacheMetrics{},
		logger:  logger,
	}, nil
}

func (r *RedisClient) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.metrics.Errors.Add(1)
		r.logger.Warn("Redis SET failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Get distinguishes a miss (ErrCacheMiss) from an unreachable server (ErrCacheUnavailable).
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.metrics.Misses.Add(1)
			return "", ErrCacheMiss
		}
		r.metrics.Errors.Add(1)
		r.logger.Warn("Redis GET failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	r.metrics.Hits.Add(1)
	return val, nil
}

func (r *RedisClient) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.metrics.Errors.Add(1)
		r.logger.Warn("Redis DEL failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

// Incr atomically increments a counter. Used for user id allocation.
func (r *RedisClient) Incr(ctx context.Context, key string) (int64, error) {
	val, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		r.metrics.Errors.Add(1)
		r.logger.Warn("Redis INCR failed", zap.String("key", key), zap.Error(err))
		return 0, fmt.Errorf("cache incr failed: %w", err)
	}
	return val, nil
}

func (r *RedisClient) GetMetrics() map[string]int64 {
	return map[string]int64{
		"hits":   r.metrics.Hits.Load(),
		"misses": r.metrics.Misses.Load(),
		"errors": r.metrics.Errors.Load(),
	}
}

func (r *RedisClient) GetHitRate() float64 {
	return hitRate(r.metrics.Hits.Load(), r.metrics.Misses.Load())
}

func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	r.logger.Info("Closing Redis connection",
		zap.Int64("hits", r.metrics.Hits.Load()),
		zap.Int64("misses", r.metrics.Misses.Load()),
		zap.Int64("errors", r.metrics.Errors.Load()),
		zap.Float64("hit_rate", r.GetHitRate()))
	return r.client.Close()
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}
