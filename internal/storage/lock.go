package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if the caller still owns it
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// extendScript resets the lock's expiry only if the caller still owns it
var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

func caseLockKey(id uuid.UUID) string {
	return caseLockPrefix + id.String()
}

// AcquireLock attempts to lock an investigation for owner.
// Returns true if the lock was acquired, false if someone else holds it.
func (r *RedisStorage) AcquireLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, caseLockKey(id), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire case lock: %w", err)
	}
	return ok, nil
}

// ReleaseLock releases the lock for an investigation if owner holds it
func (r *RedisStorage) ReleaseLock(ctx context.Context, id uuid.UUID, owner string) error {
	if err := releaseScript.Run(ctx, r.client, []string{caseLockKey(id)}, owner).Err(); err != nil {
		return fmt.Errorf("failed to release case lock: %w", err)
	}
	return nil
}

// ExtendLock pushes the lock's expiry out to ttl from now. Returns false if
// owner no longer holds the lock, for example because it expired.
func (r *RedisStorage) ExtendLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, r.client, []string{caseLockKey(id)}, owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to extend case lock: %w", err)
	}
	return n == 1, nil
}
