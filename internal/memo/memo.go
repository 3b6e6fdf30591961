package memo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/quickcart/backend/internal/cache"
	"github.com/quickcart/backend/internal/logger"
)

// Memoizer is a cache-aside wrapper over the shared Store. Concurrent
// identical calls during a miss may each recompute and overwrite,
// last-write-wins; no single-flight deduplication is provided.
type Memoizer struct {
	store      *cache.Store
	logger     logger.Logger
	defaultTTL time.Duration
}

// New creates a memoizer. defaultTTL applies when a call site passes ttl <= 0.
func New(store *cache.Store, l logger.Logger, defaultTTL time.Duration) *Memoizer {
	return &Memoizer{
		store:      store,
		logger:     l,
		defaultTTL: defaultTTL,
	}
}

// Cached returns the value stored under key if present, otherwise runs
// compute, stores its result under key with ttl and returns it. A compute
// error is returned as-is and nothing is cached.
func Cached[T any](ctx context.Context, m *Memoizer, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var hit T
	if m.store.GetJSON(ctx, key, &hit) {
		return hit, nil
	}

	result, err := compute(ctx)
	if err != nil {
		return result, err
	}

	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	// Marshal here rather than in the store so that every memoized type,
	// strings included, round-trips through the same JSON form GetJSON reads.
	encoded, err := json.Marshal(result)
	if err != nil {
		m.logger.Error("Failed to encode memoized result",
			logger.String("key", key),
			logger.Error(err))
		return result, nil
	}
	m.store.Set(ctx, key, encoded, ttl)

	return result, nil
}

// Invalidate runs op and, when it completes without error, deletes every
// cached key matching pattern. The op result is returned either way.
func Invalidate[T any](ctx context.Context, m *Memoizer, pattern string, op func(context.Context) (T, error)) (T, error) {
	result, err := op(ctx)
	if err != nil {
		return result, err
	}

	m.InvalidatePattern(ctx, pattern)
	return result, nil
}

// InvalidatePattern deletes every cached key matching the glob pattern and
// returns how many were removed.
func (m *Memoizer) InvalidatePattern(ctx context.Context, pattern string) int {
	removed := m.store.DeletePattern(ctx, pattern)
	if removed > 0 {
		m.logger.Debug("Cache invalidated",
			logger.String("pattern", pattern),
			logger.Int("removed", removed))
	}
	return removed
}
