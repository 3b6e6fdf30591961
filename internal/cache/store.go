package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/quickcart/backend/internal/config"
	"github.com/quickcart/backend/internal/logger"
)

// Store is the cache surface every other component consumes. It wraps the
// backend chosen at startup and converts every backend I/O failure into a
// safe default (absent, false, 0) after logging it. Callers must treat a
// negative result as "not found", never as evidence that the backend is down.
type Store struct {
	backend Backend
	logger  logger.Logger
}

// New probes redis once and falls back to the in-process store when the probe
// fails. The choice is never revisited for the lifetime of the process.
func New(cfg config.RedisConfig, l logger.Logger) *Store {
	backend, err := NewRedisBackend(cfg, l)
	if err != nil {
		l.Warn("Redis unavailable, using in-memory fallback cache",
			logger.Error(err))
		backend = NewMemoryBackend()
	}

	return NewStore(backend, l)
}

// NewStore wraps an explicit backend. Used directly in tests.
func NewStore(b Backend, l logger.Logger) *Store {
	return &Store{backend: b, logger: l}
}

// Get returns the raw stored value and whether the key was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	val, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("Cache get failed", logger.String("key", key), logger.Error(err))
		}
		return "", false
	}
	return val, true
}

// GetJSON decodes a stored JSON document into dest. A decode failure is
// treated the same as a miss.
func (s *Store) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	raw, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.logger.Error("Cache value is not valid JSON",
			logger.String("key", key),
			logger.Error(err))
		return false
	}
	return true
}

// Set stores value under key. A zero ttl stores it without expiry.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) bool {
	if err := s.backend.Set(ctx, key, value, ttl); err != nil {
		s.logger.Error("Cache set failed", logger.String("key", key), logger.Error(err))
		return false
	}
	return true
}

// Delete removes key and reports whether it was present. Removing an absent
// key is not an error.
func (s *Store) Delete(ctx context.Context, key string) bool {
	present, err := s.backend.Delete(ctx, key)
	if err != nil {
		s.logger.Error("Cache delete failed", logger.String("key", key), logger.Error(err))
		return false
	}
	return present
}

// Exists reports whether key currently holds a live value.
func (s *Store) Exists(ctx context.Context, key string) bool {
	ok, err := s.backend.Exists(ctx, key)
	if err != nil {
		s.logger.Error("Cache exists check failed", logger.String("key", key), logger.Error(err))
		return false
	}
	return ok
}

// Increment adds 1 to the counter at key and returns the new value.
func (s *Store) Increment(ctx context.Context, key string) int64 {
	return s.IncrementBy(ctx, key, 1)
}

// IncrementBy adds amount to the counter at key and returns the new value.
func (s *Store) IncrementBy(ctx context.Context, key string, amount int64) int64 {
	val, err := s.backend.IncrBy(ctx, key, amount)
	if err != nil {
		s.logger.Error("Cache increment failed", logger.String("key", key), logger.Error(err))
		return 0
	}
	return val
}

// Decrement subtracts 1 from the counter at key and returns the new value.
func (s *Store) Decrement(ctx context.Context, key string) int64 {
	val, err := s.backend.DecrBy(ctx, key, 1)
	if err != nil {
		s.logger.Error("Cache decrement failed", logger.String("key", key), logger.Error(err))
		return 0
	}
	return val
}

// IncrementWithWindow increments the counter at key and, only when this call
// created the counter, attaches the window as its TTL. Later increments never
// touch the TTL, keeping fixed-window semantics. If the creating call fails
// between the increment and the expire, the counter is left without a TTL; a
// bounded, known leak.
func (s *Store) IncrementWithWindow(ctx context.Context, key string, window time.Duration) int64 {
	count := s.IncrementBy(ctx, key, 1)
	if count == 1 {
		if _, err := s.backend.Expire(ctx, key, window); err != nil {
			s.logger.Warn("Failed to attach window ttl to counter",
				logger.String("key", key),
				logger.Error(err))
		}
	}
	return count
}

// TTL returns the remaining lifetime of key and whether the key both exists
// and carries an expiry.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, bool) {
	d, err := s.backend.TTL(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("Cache ttl read failed", logger.String("key", key), logger.Error(err))
		}
		return 0, false
	}
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// DeletePattern removes every key matching the glob pattern and returns how
// many live keys were deleted.
func (s *Store) DeletePattern(ctx context.Context, pattern string) int {
	n, err := s.backend.DeletePattern(ctx, pattern)
	if err != nil {
		s.logger.Error("Cache pattern delete failed",
			logger.String("pattern", pattern),
			logger.Error(err))
	}
	return n
}

// Ping reports backend health, used by the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close releases the backend's resources.
func (s *Store) Close() error {
	return s.backend.Close()
}
