package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const sweepLockKey = "lock:expiration-sweep"

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireSweepLock attempts to take the expiration sweep leader lock.
// Returns true if the lock was acquired, false if another instance holds it.
// The sweep itself is idempotent, so losing the lock only skips redundant
// work; it is not a correctness requirement.
func (s *LockStore) AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, sweepLockKey, "1", ttl).Result()
}

// ReleaseSweepLock releases the sweep leader lock.
func (s *LockStore) ReleaseSweepLock(ctx context.Context) error {
	return s.client.Del(ctx, sweepLockKey).Err()
}
