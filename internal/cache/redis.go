package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/quickcart/backend/internal/config"
	"github.com/quickcart/backend/internal/logger"
	"github.com/redis/go-redis/v9"
)

type redisBackend struct {
	client *redis.Client
	logger logger.Logger
}

// NewRedisBackend connects to redis using the configured connection string
// and verifies the connection with a ping before returning.
func NewRedisBackend(cfg config.RedisConfig, l logger.Logger) (Backend, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	l.Info("Redis connection established",
		logger.String("addr", opts.Addr),
		logger.Int("db", opts.DB))

	return &redisBackend{
		client: client,
		logger: l,
	}, nil
}

// Set saves value by key with TTL. A zero ttl stores the key without expiry.
func (r *redisBackend) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache value: %w", err)
	}

	return nil
}

// Get gets value by key
func (r *redisBackend) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get cache value: %w", err)
	}

	return val, nil
}

// Delete deletes value by key and reports whether it was present
func (r *redisBackend) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete cache value: %w", err)
	}

	return removed > 0, nil
}

// Exists checks whether the key exists
func (r *redisBackend) Exists(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check key existence: %w", err)
	}

	return count > 0, nil
}

// IncrBy atomically increments the integer value stored at key
func (r *redisBackend) IncrBy(ctx context.Context, key string, amount int64) (int64, error) {
	val, err := r.client.IncrBy(ctx, key, amount).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment cache value: %w", err)
	}

	return val, nil
}

// DecrBy atomically decrements the integer value stored at key
func (r *redisBackend) DecrBy(ctx context.Context, key string, amount int64) (int64, error) {
	val, err := r.client.DecrBy(ctx, key, amount).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to decrement cache value: %w", err)
	}

	return val, nil
}

// Expire attaches a TTL to an existing key
func (r *redisBackend) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set ttl: %w", err)
	}

	return ok, nil
}

// TTL reports the remaining lifetime of key. Keys without expiry report 0.
func (r *redisBackend) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read ttl: %w", err)
	}
	if d == -2 {
		// redis reports -2 for a missing key
		return 0, ErrNotFound
	}
	if d < 0 {
		// -1: key exists but has no associated expiry
		return 0, nil
	}
	return d, nil
}

// DeletePattern removes all keys matching the glob pattern using SCAN
// so large keyspaces aren't blocked the way KEYS would.
func (r *redisBackend) DeletePattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			removed, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete matched keys: %w", err)
			}
			deleted += int(removed)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}

// Ping returns an error if the connection to redis is gone
func (r *redisBackend) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

// Close closes the redis connection
func (r *redisBackend) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis connection: %w", err)
	}

	r.logger.Info("Redis connection closed")
	return nil
}
