package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Port is the cache contract consumed by the core. Every method reports
// failure through its return values; callers treat any failure as a miss and
// keep going. Cache availability is never required for correctness.
type Port interface {
	// Get returns the cached value and true on a hit. A backend failure is
	// indistinguishable from a miss on purpose.
	Get(ctx context.Context, key string) (string, bool)
	// Set stores value under key with a TTL. Best effort.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Del removes key. Best effort.
	Del(ctx context.Context, key string) error
}

// Redis adapts a go-redis client to the Port contract.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps client as a Port.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
