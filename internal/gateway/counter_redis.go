package gateway

import (
	"context"
	"fmt"
	"time"

	"warden/internal/platform/redis"
)

// RedisCounterStore keeps fixed-window counters in Redis so rate limits hold
// across multiple bot processes. INCR is atomic, so no extra locking is
// needed; the key's TTL is set once when the window opens and carries the
// window boundary.
type RedisCounterStore struct {
	client *redis.Client
	prefix string
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client, prefix: "warden:ratelimit:"}
}

func (s *RedisCounterStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	full := s.prefix + key
	count, err := s.client.Incr(ctx, full).Result()
	if err != nil {
		return 0, fmt.Errorf("increment rate counter: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, full, window).Err(); err != nil {
			return 0, fmt.Errorf("set rate counter window: %w", err)
		}
	}
	return int(count), nil
}
