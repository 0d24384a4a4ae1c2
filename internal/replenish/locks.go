package replenish

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// RedisLockManager hands out per-SKU locks backed by Redis.
type RedisLockManager struct {
	client *redislock.Client
}

// NewRedisLockManager wraps the Redis connection for locking.
func NewRedisLockManager(rdb redis.UniversalClient) *RedisLockManager {
	return &RedisLockManager{client: redislock.New(rdb)}
}

// Obtain acquires the key or reports ErrLockNotObtained when another holder
// has it. No retry backoff: the scheduler treats contention as "someone
// else is already evaluating this SKU".
func (m *RedisLockManager) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := m.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, err
	}
	return lock, nil
}
