package redisinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-notify-nosql/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewClient creates a Redis client, or returns nil when REDIS_ADDR is empty.
func NewClient(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     5,
	})
}

// Ping tests the Redis connection.
func Ping(ctx context.Context, c *redis.Client) error {
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a best-effort mutual exclusion over one key (SET NX PX).
type Lock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// NewLock returns a lock identified by token. Different processes must use different tokens.
func NewLock(client *redis.Client, key, token string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, token: token, ttl: ttl}
}

// Acquire reports whether the lock was taken. It expires on its own after the TTL.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	err := l.client.SetArgs(ctx, l.key, l.token, redis.SetArgs{Mode: "NX", TTL: l.ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	return true, nil
}

// Release frees the lock if this holder still owns it.
func (l *Lock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
