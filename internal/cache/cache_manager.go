package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CacheManager layers the local cache (L1) over Redis (L2).
// Either tier may be nil; a manager with both nil always misses.
type CacheManager struct {
	local  *LocalCache
	redis  *RedisClient
	config *CacheManagerConfig
	logger *zap.Logger
}

type CacheManagerConfig struct {
	RedisTTL time.Duration

	// GracefulDegradation turns Redis failures into misses instead of errors.
	GracefulDegradation bool

	Name string
}

func DefaultCacheManagerConfig() *CacheManagerConfig {
	return &CacheManagerConfig{
		RedisTTL:            10 * time.Minute,
		GracefulDegradation: true,
		Name:                "users",
	}
}

func NewCacheManager(local *LocalCache, redis *RedisClient, config *CacheManagerConfig, logger *zap.Logger) *CacheManager {
	if config == nil {
		config = DefaultCacheManagerConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("cache", config.Name))

	logger.Info("Cache manager initialized",
		zap.Bool("local", local != nil),
		zap.Bool("redis", redis != nil),
		zap.Bool("graceful", config.GracefulDegradation))

	return &CacheManager{
		local:  local,
		redis:  redis,
		config: config,
		logger: logger,
	}
}

// Get returns the value and the tier it came from: "local", "redis" or "miss".
func (cm *CacheManager) Get(ctx context.Context, key string) (string, string, error) {
	if cm.local != nil {
		value, err := cm.local.GetString(key)
		if err == nil {
			return value, "local", nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			cm.logger.Warn("Local cache error", zap.String("key", key), zap.Error(err))
		}
	}

	if cm.redis != nil {
		value, err := cm.redis.Get(ctx, key)
		if err == nil {
			if cm.local != nil {
				if setErr := cm.local.SetString(key, value); setErr != nil {
					cm.logger.Warn("Local cache write-back failed", zap.String("key", key), zap.Error(setErr))
				}
			}
			return value, "redis", nil
		}
		if errors.Is(err, ErrCacheMiss) {
			return "", "miss", ErrCacheMiss
		}
		if cm.config.GracefulDegradation {
			return "", "miss", ErrCacheMiss
		}
		return "", "error", err
	}

	return "", "miss", ErrCacheMiss
}

// Set writes through to every configured tier.
func (cm *CacheManager) Set(ctx context.Context, key string, value string) error {
	if cm.local != nil {
		if err := cm.local.SetString(key, value); err != nil {
			cm.logger.Warn("Local cache set failed", zap.String("key", key), zap.Error(err))
		}
	}

	if cm.redis != nil {
		if err := cm.redis.Set(ctx, key, value, cm.config.RedisTTL); err != nil && !cm.config.GracefulDegradation {
			return err
		}
	}
	return nil
}

// Delete removes key from every tier.
func (cm *CacheManager) Delete(ctx context.Context, key string) error {
	var localErr, redisErr error

	if cm.local != nil {
		localErr = cm.local.Delete(key)
	}
	if cm.redis != nil {
		redisErr = cm.redis.Delete(ctx, key)
	}

	if localErr != nil {
		return localErr
	}
	if redisErr != nil && !cm.config.GracefulDegradation {
		return redisErr
	}
	return nil
}

// Invalidate removes key from every tier and, unlike Delete, reports a Redis
// failure even under graceful degradation. Writers use it so a stale L2 entry
// cannot outlive the record it describes.
func (cm *CacheManager) Invalidate(ctx context.Context, key string) error {
	if cm.local != nil {
		if err := cm.local.Delete(key); err != nil {
			return err
		}
	}
	if cm.redis != nil {
		if err := cm.redis.Delete(ctx, key); err != nil {
			return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
		}
	}
	return nil
}

// Refresh stores value as JSON in every tier and reports any failure,
// Redis included.
func (cm *CacheManager) Refresh(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	if cm.local != nil {
		if err := cm.local.Set(key, data); err != nil {
			return err
		}
	}
	if cm.redis != nil {
		if err := cm.redis.Set(ctx, key, string(data), cm.config.RedisTTL); err != nil {
			return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
		}
	}
	return nil
}

func (cm *CacheManager) SetJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return cm.Set(ctx, key, string(data))
}

// GetJSON unmarshals the cached value into dest and returns its source tier.
func (cm *CacheManager) GetJSON(ctx context.Context, key string, dest any) (string, error) {
	raw, source, err := cm.Get(ctx, key)
	if err != nil {
		return source, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return source, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return source, nil
}

func (cm *CacheManager) GetMetrics() map[string]any {
	metrics := make(map[string]any)
	if cm.local != nil {
		metrics["local"] = cm.local.GetMetrics()
		metrics["local_hit_rate"] = cm.local.GetHitRate()
	}
	if cm.redis != nil {
		metrics["redis"] = cm.redis.GetMetrics()
		metrics["redis_hit_rate"] = cm.redis.GetHitRate()
	}
	return metrics
}

func (cm *CacheManager) HealthCheck(ctx context.Context) map[string]string {
	health := make(map[string]string)

	if cm.local != nil {
		health["local"] = "healthy"
		health["local_entries"] = fmt.Sprintf("%d", cm.local.Len())
	} else {
		health["local"] = "disabled"
	}

	if cm.redis != nil {
		if err := cm.redis.HealthCheck(ctx); err != nil {
			health["redis"] = fmt.Sprintf("unhealthy: %v", err)
		} else {
			health["redis"] = "healthy"
		}
	} else {
		health["redis"] = "disabled"
	}

	return health
}

// Close closes the local tier. The Redis client is shared with the id
// sequence and is closed by its owner.
func (cm *CacheManager) Close() error {
	if cm.local == nil {
		return nil
	}
	return cm.local.Close()
}
