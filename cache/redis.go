package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yuchialin/estate-app/utils"
)

// RedisStore backs Store with a shared Redis client. Every round-trip is
// bounded so a stalled cache degrades to a miss instead of holding the
// request open.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client, timeout: 2 * time.Second}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			utils.ErrorLogger.Printf("cache get %s: %v", key, err)
		}
		return "", false
	}
	return val, true
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Del(ctx, keys...).Err()
}

// DeletePattern removes all keys matching a glob pattern. SCAN is used
// instead of KEYS so a large keyspace does not block the server.
func (s *RedisStore) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var deleted int64
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			n, err := s.client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += n
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	if len(batch) > 0 {
		n, err := s.client.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, nil
}

func (s *RedisStore) FlushAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.FlushDB(ctx).Err()
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stats := Stats{MemoryUsed: "N/A"}

	total, err := s.client.DBSize(ctx).Result()
	if err != nil {
		return stats, err
	}
	stats.TotalKeys = total

	iter := s.client.Scan(ctx, 0, RentalPattern, 100).Iterator()
	for iter.Next(ctx) {
		stats.RentalKeys++
	}
	if err := iter.Err(); err != nil {
		return stats, err
	}

	info, err := s.client.Info(ctx, "memory").Result()
	if err != nil {
		return stats, err
	}
	for _, line := range strings.Split(info, "\r\n") {
		if v, ok := strings.CutPrefix(line, "used_memory_human:"); ok {
			stats.MemoryUsed = strings.TrimSpace(v)
			break
		}
	}
	return stats, nil
}
