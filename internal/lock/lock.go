// Package lock serialises writers to the same group across server instances.
//
// A single instance is already serialised by SQLite's BEGIN IMMEDIATE; the
// Redis locker only matters when several instances share one database file
// over a network filesystem or are fronted by a common queue.
//
// Leases are not refreshed. A holder that keeps a group longer than the TTL
// loses exclusivity; its release then reports ErrLeaseLost so the overrun
// shows up in the logs. Size the TTL well above the slowest transaction.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when the lock is still held by someone else after
// every retry.
var ErrNotObtained = errors.New("group is locked by another writer")

// ErrLeaseLost is returned by a Release whose lease expired while held.
var ErrLeaseLost = errors.New("group lock lease expired before release")

// Release gives a lock back.
type Release func(ctx context.Context) error

// Locker hands out per-group mutual exclusion.
type Locker interface {
	Acquire(ctx context.Context, groupID string) (Release, error)
}

// Noop is used when no Redis is configured.
type Noop struct{}

// Acquire always succeeds immediately.
func (Noop) Acquire(context.Context, string) (Release, error) {
	return func(context.Context) error { return nil }, nil
}

// RedisLocker takes a redislock lease on "group-lock:<groupID>".
type RedisLocker struct {
	client  *redislock.Client
	ttl     time.Duration
	retries int
	backoff time.Duration
	token   string // fixed lease token; empty means random per lease
}

// NewRedisLocker wraps a go-redis client. ttl bounds how long a crashed holder
// can block the group.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:  redislock.New(rdb),
		ttl:     ttl,
		retries: 50,
		backoff: 100 * time.Millisecond,
	}
}

// Acquire blocks until the lock is obtained, ctx is done, or retries run out.
func (l *RedisLocker) Acquire(ctx context.Context, groupID string) (Release, error) {
	key := fmt.Sprintf("group-lock:%s", groupID)
	lk, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
		Token:         l.token,
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain group lock: %w", err)
	}

	return func(ctx context.Context) error {
		err := lk.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("%w: %s after %s", ErrLeaseLost, groupID, l.ttl)
		}
		if err != nil {
			return fmt.Errorf("failed to release group lock: %w", err)
		}
		return nil
	}, nil
}
