package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound marks a normal negative lookup. Backends return it for absent
// keys; the Store translates it into a plain "absent" result.
var ErrNotFound = errors.New("cache: key not found")

// Backend is a TTL key-value store. Exactly two implementations exist: the
// redis backend and the in-process memory fallback. The choice is made once
// at startup by the connectivity probe in New; consumers only ever see the
// Store wrapper and never branch on the backend type.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	IncrBy(ctx context.Context, key string, amount int64) (int64, error)
	DecrBy(ctx context.Context, key string, amount int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// TTL returns the remaining lifetime of key, 0 for keys without expiry,
	// ErrNotFound for absent keys.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// DeletePattern removes every key matching the glob pattern and returns
	// how many were deleted.
	DeletePattern(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// encodeValue serializes a value for storage. Strings and byte slices pass
// through untouched so counters stay INCR-compatible; everything else is
// canonical JSON. Both backends store the same encoded form.
func encodeValue(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("failed to marshal value: %w", err)
		}
		return string(data), nil
	}
}
