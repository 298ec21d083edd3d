package cache

import (
	"context"
	"fmt"
	"time"

	redisstorage "github.com/gofiber/storage/redis/v3"
)

const scanBatch = 100

// RedisStore is a Store backed by the Fiber Redis storage driver. The same
// storage also backs the HTTP rate limiter.
type RedisStore struct {
	storage *redisstorage.Storage
}

// NewRedisStore connects to Redis at url. The driver panics when it cannot
// reach the server, so that is turned into an error here.
func NewRedisStore(url string) (store *RedisStore, err error) {
	defer func() {
		if r := recover(); r != nil {
			store = nil
			err = fmt.Errorf("failed to connect to redis: %v", r)
		}
	}()
	storage := redisstorage.New(redisstorage.Config{
		URL: url,
	})
	return &RedisStore{storage: storage}, nil
}

// Storage exposes the underlying Fiber storage.
func (s *RedisStore) Storage() *redisstorage.Storage {
	return s.storage
}

// Get returns the raw value at key, or nil on a miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.storage.GetWithContext(ctx, key)
}

// Set writes val at key with the given expiry.
func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.storage.SetWithContext(ctx, key, val, ttl)
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.storage.DeleteWithContext(ctx, key)
}

// InvalidatePattern scans for keys matching pattern and deletes them in batches.
func (s *RedisStore) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	conn := s.storage.Conn()
	iter := conn.Scan(ctx, 0, pattern, scanBatch).Iterator()

	deleted := 0
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := conn.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("failed to delete keys: %w", err)
		}
		deleted += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= scanBatch {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to scan keys: %w", err)
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.storage.Close()
}
