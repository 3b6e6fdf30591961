package cache

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	data      string
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// memoryBackend is the in-process fallback used when redis is unreachable at
// startup. Expiry is checked lazily on read, there is no background sweep.
// All access goes through the mutex so counters stay atomic even under
// concurrent request handling.
type memoryBackend struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	now  func() time.Time
}

// NewMemoryBackend creates an empty in-process store.
func NewMemoryBackend() Backend {
	return &memoryBackend{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

func (m *memoryBackend) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		return err
	}

	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.data[key] = entry
	m.mu.Unlock()

	return nil
}

func (m *memoryBackend) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	if entry.expired(m.now()) {
		delete(m.data, key)
		return "", ErrNotFound
	}

	return entry.data, nil
}

func (m *memoryBackend) Delete(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.data[key]
	if !ok {
		return false, nil
	}
	delete(m.data, key)

	// A lapsed entry counts as already gone.
	if entry.expired(m.now()) {
		return false, nil
	}
	return true, nil
}

func (m *memoryBackend) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.data[key]
	if !ok {
		return false, nil
	}
	if entry.expired(m.now()) {
		delete(m.data, key)
		return false, nil
	}

	return true, nil
}

func (m *memoryBackend) IncrBy(ctx context.Context, key string, amount int64) (int64, error) {
	return m.add(key, amount)
}

func (m *memoryBackend) DecrBy(ctx context.Context, key string, amount int64) (int64, error) {
	return m.add(key, -amount)
}

// add is the shared read-modify-write for counters. The write lock is held
// across the whole sequence, which is what makes increments atomic here.
func (m *memoryBackend) add(key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	entry, ok := m.data[key]
	if ok && entry.expired(m.now()) {
		delete(m.data, key)
		entry = memoryEntry{}
		ok = false
	}
	if ok {
		parsed, err := strconv.ParseInt(entry.data, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %s is not an integer: %w", key, err)
		}
		current = parsed
	}

	current += delta
	// An increment preserves any expiry already attached to the key.
	m.data[key] = memoryEntry{data: strconv.FormatInt(current, 10), expiresAt: entry.expiresAt}

	return current, nil
}

func (m *memoryBackend) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.data[key]
	if !ok || entry.expired(m.now()) {
		return false, nil
	}

	entry.expiresAt = m.now().Add(ttl)
	m.data[key] = entry
	return true, nil
}

func (m *memoryBackend) TTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.data[key]
	if !ok {
		return 0, ErrNotFound
	}

	now := m.now()
	if entry.expired(now) {
		delete(m.data, key)
		return 0, ErrNotFound
	}
	if entry.expiresAt.IsZero() {
		return 0, nil
	}

	return entry.expiresAt.Sub(now), nil
}

func (m *memoryBackend) DeletePattern(ctx context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	re, err := globToRegexp(pattern)
	if err != nil {
		return 0, fmt.Errorf("bad key pattern %q: %w", pattern, err)
	}

	now := m.now()
	deleted := 0
	for key, entry := range m.data {
		if !re.MatchString(key) {
			continue
		}
		live := !entry.expired(now)
		delete(m.data, key)
		if live {
			deleted++
		}
	}

	return deleted, nil
}

// globToRegexp compiles a redis-style glob into an anchored regexp. Redis
// keys have no separator hierarchy, so '*' and '?' must match any character
// including '/', which rules out path-style matching.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.Grow(len(pattern) + 4)
	b.WriteByte('^')

	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		case '\\':
			i++
			if i < len(pattern) {
				b.WriteString(regexp.QuoteMeta(string(pattern[i])))
			} else {
				b.WriteString(`\\`)
			}
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated character class")
			}
			class := pattern[i+1 : i+1+end]
			b.WriteByte('[')
			if strings.HasPrefix(class, "^") {
				b.WriteByte('^')
				class = class[1:]
			}
			for j := 0; j < len(class); j++ {
				if class[j] == '\\' {
					b.WriteByte('\\')
				}
				b.WriteByte(class[j])
			}
			b.WriteByte(']')
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteByte('$')
	return regexp.Compile(b.String())
}

func (m *memoryBackend) Ping(ctx context.Context) error {
	return nil
}

func (m *memoryBackend) Close() error {
	m.mu.Lock()
	m.data = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}
