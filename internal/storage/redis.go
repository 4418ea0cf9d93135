package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps short-lived crawl bookkeeping: which keywords ran
// recently and how often a keyword has failed.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MarkAsTracked sets a key with a TTL to prevent re-running a keyword.
func (s *RedisStore) MarkAsTracked(ctx context.Context, keyword string, ttl time.Duration) error {
	key := fmt.Sprintf("tracked:%s", keyword)
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// IsRecentlyTracked checks whether a keyword ran within the TTL window.
func (s *RedisStore) IsRecentlyTracked(ctx context.Context, keyword string) (bool, error) {
	key := fmt.Sprintf("tracked:%s", keyword)
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// IncrementRetryCount increments the failure counter for a keyword.
func (s *RedisStore) IncrementRetryCount(ctx context.Context, keyword string) (int64, error) {
	key := fmt.Sprintf("retry:%s", keyword)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// retry keys should not outlive the day's runs
	s.client.Expire(ctx, key, 24*time.Hour)
	return count, nil
}

// ClearRetryCount removes the failure counter after a successful run.
func (s *RedisStore) ClearRetryCount(ctx context.Context, keyword string) error {
	return s.client.Del(ctx, fmt.Sprintf("retry:%s", keyword)).Err()
}
