package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"
	"go.uber.org/zap"
)

// LocalCache is the in-process L1 tier, backed by BigCache.
type LocalCache struct {
	cache   *bigcache.BigCache
	metrics *LocalCacheMetrics
	name    string
	logger  *zap.Logger
}

type LocalCacheMetrics struct {
	Hits   atomic.Int64
	Misses atomic.Int64
	Sets   atomic.Int64
	Errors atomic.Int64
}

type LocalCacheConfig struct {
	// Shards must be a power of 2.
	Shards int

	// LifeWindow is the TTL of every entry. BigCache has no per-key TTL.
	LifeWindow time.Duration

	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int

	// HardMaxCacheSize in MB, 0 = no limit
	HardMaxCacheSize int

	Name string
}

// DefaultLocalCacheConfig is sized for a few thousand users.
func DefaultLocalCacheConfig() *LocalCacheConfig {
	return &LocalCacheConfig{
		Shards:             256,
		LifeWindow:         1 * time.Minute,
		CleanWindow:        5 * time.Minute,
		MaxEntriesInWindow: 1000 * 60,
		MaxEntrySize:       256,
		HardMaxCacheSize:   64,
		Name:               "users",
	}
}

func NewLocalCache(config *LocalCacheConfig, logger *zap.Logger) (*LocalCache, error) {
	if config == nil {
		config = DefaultLocalCacheConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bigCacheConfig := bigcache.DefaultConfig(config.LifeWindow)
	bigCacheConfig.Shards = config.Shards
	bigCacheConfig.CleanWindow = config.CleanWindow
	bigCacheConfig.MaxEntriesInWindow = config.MaxEntriesInWindow
	bigCacheConfig.MaxEntrySize = config.MaxEntrySize
	bigCacheConfig.HardMaxCacheSize = config.HardMaxCacheSize
	bigCacheConfig.Verbose = false
	bigCacheConfig.OnRemoveWithReason = func(key string, entry []byte, reason bigcache.RemoveReason) {
		if reason == bigcache.NoSpace {
			logger.Debug("Local cache evicted entry", zap.String("cache", config.Name), zap.String("key", key))
		}
	}

	cache, err := bigcache.New(context.Background(), bigCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}

	logger.Info("Local cache initialized",
		zap.String("cache", config.Name),
		zap.Int("shards", config.Shards),
		zap.Duration("life_window", config.LifeWindow))

	return &LocalCache{
		cache:   cache,
		metrics: &LocalCacheMetrics{},
		name:    config.Name,
		logger:  logger,
	}, nil
}

func (l *LocalCache) Set(key string, value []byte) error {
	l.metrics.Sets.Add(1)

	if err := l.cache.Set(key, value); err != nil {
		l.metrics.Errors.Add(1)
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

func (l *LocalCache) SetString(key string, value string) error {
	return l.Set(key, []byte(value))
}

func (l *LocalCache) Get(key string) ([]byte, error) {
	value, err := l.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			l.metrics.Misses.Add(1)
			return nil, ErrCacheMiss
		}
		l.metrics.Errors.Add(1)
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	l.metrics.Hits.Add(1)
	return value, nil
}

func (l *LocalCache) GetString(key string) (string, error) {
	value, err := l.Get(key)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (l *LocalCache) Delete(key string) error {
	err := l.cache.Delete(key)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		l.metrics.Errors.Add(1)
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

func (l *LocalCache) Len() int {
	return l.cache.Len()
}

func (l *LocalCache) GetMetrics() map[string]int64 {
	stats := l.cache.Stats()

	return map[string]int64{
		"hits":       l.metrics.Hits.Load(),
		"misses":     l.metrics.Misses.Load(),
		"sets":       l.metrics.Sets.Load(),
		"errors":     l.metrics.Errors.Load(),
		"entries":    int64(l.cache.Len()),
		"collisions": int64(stats.Collisions),
	}
}

func (l *LocalCache) GetHitRate() float64 {
	return hitRate(l.metrics.Hits.Load(), l.metrics.Misses.Load())
}

func (l *LocalCache) Close() error {
	l.logger.Info("Closing local cache",
		zap.String("cache", l.name),
		zap.Int64("hits", l.metrics.Hits.Load()),
		zap.Int64("misses", l.metrics.Misses.Load()),
		zap.Int("entries", l.cache.Len()),
		zap.Float64("hit_rate", l.GetHitRate()))
	return l.cache.Close()
}
