// Package redislock provides a per-conference import lock backed by Redis.
package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/cfp-sync/internal/domain"
)

const keyPrefix = "cfp-import:"

// releaseScript deletes the key only when it still holds our token, so an
// expired lock re-acquired by another run is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker hands out import locks keyed by conference id.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to redisURL and returns a Locker whose locks expire after ttl.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*Locker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Locker{client: client, ttl: ttl}, nil
}

// NewWithClient creates a Locker from an existing Redis client.
func NewWithClient(client *redis.Client, ttl time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl}
}

// Acquire takes the import lock for conferenceID and returns its release
// function. Returns domain.ErrImportAlreadyRunning if another run holds it.
func (l *Locker) Acquire(ctx context.Context, conferenceID string) (func(context.Context) error, error) {
	key := keyPrefix + conferenceID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire import lock %s: %w", conferenceID, err)
	}
	if !ok {
		return nil, fmt.Errorf("conference %s: %w", conferenceID, domain.ErrImportAlreadyRunning)
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release import lock %s: %w", conferenceID, err)
		}
		return nil
	}, nil
}

// Ping checks the Redis connection.
func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (l *Locker) Close() error {
	return l.client.Close()
}

// Nop is a Locker stand-in used when no Redis URL is configured. Every
// Acquire succeeds.
type Nop struct{}

// Acquire always succeeds.
func (Nop) Acquire(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
