package repository

import (
	"context"

	"usermgr/internal/cache"
)

const userIDSequenceKey = "users:id:seq"

// RedisSequence allocates ids with INCR on a single Redis key, so ids are
// unique across every process sharing the Redis instance.
type RedisSequence struct {
	client *cache.RedisClient
	key    string
}

func NewRedisSequence(client *cache.RedisClient) *RedisSequence {
	return &RedisSequence{client: client, key: userIDSequenceKey}
}

func (s *RedisSequence) Next(ctx context.Context) (int64, error) {
	return s.client.Incr(ctx, s.key)
}
