package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/quickcart/backend/internal/config"
	"github.com/quickcart/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(msg string, fields ...logger.Field)  {}
func (m *mockLogger) Info(msg string, fields ...logger.Field)   {}
func (m *mockLogger) Warn(msg string, fields ...logger.Field)   {}
func (m *mockLogger) Error(msg string, fields ...logger.Field)  {}
func (m *mockLogger) Fatal(msg string, fields ...logger.Field)  {}
func (m *mockLogger) With(fields ...logger.Field) logger.Logger { return m }
func (m *mockLogger) Sync() error                               { return nil }
func (m *mockLogger) SetLevel(level logger.Level)               {}

// Test setup helper
func SetupTestRedis(t *testing.T) (Backend, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	backend, err := NewRedisBackend(config.RedisConfig{
		URL: "redis://" + mr.Addr(),
	}, &mockLogger{})
	require.NoError(t, err)

	t.Cleanup(func() {
		backend.Close()
	})

	return backend, mr
}

func TestRedisBackend_SetGet(t *testing.T) {
	backend, _ := SetupTestRedis(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value interface{}
		want  string
	}{
		{
			name:  "string value",
			key:   "test:string",
			value: "hello world",
			want:  "hello world",
		},
		{
			name:  "byte slice value",
			key:   "test:bytes",
			value: []byte("hello bytes"),
			want:  "hello bytes",
		},
		{
			name:  "struct value serialized as json",
			key:   "test:struct",
			value: struct {
				Name string `json:"name"`
			}{Name: "test"},
			want: `{"name":"test"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, backend.Set(ctx, tt.key, tt.value, time.Minute))

			got, err := backend.Get(ctx, tt.key)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRedisBackend_GetMissing(t *testing.T) {
	backend, _ := SetupTestRedis(t)

	_, err := backend.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisBackend_TTLExpiry(t *testing.T) {
	backend, mr := SetupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "short", "v", 30*time.Second))

	got, err := backend.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	mr.FastForward(31 * time.Second)

	_, err = backend.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisBackend_DeleteReportsPresence(t *testing.T) {
	backend, _ := SetupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "k", "v", 0))

	present, err := backend.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, present)

	present, err = backend.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, present)
}

func TestRedisBackend_Exists(t *testing.T) {
	backend, _ := SetupTestRedis(t)
	ctx := context.Background()

	ok, err := backend.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Set(ctx, "k", "v", 0))

	ok, err = backend.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisBackend_IncrementSequence(t *testing.T) {
	backend, _ := SetupTestRedis(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		val, err := backend.IncrBy(ctx, "counter", 1)
		require.NoError(t, err)
		assert.Equal(t, i, val)
	}

	val, err := backend.DecrBy(ctx, "counter", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), val)
}

func TestRedisBackend_ExpireAndTTL(t *testing.T) {
	backend, mr := SetupTestRedis(t)
	ctx := context.Background()

	_, err := backend.IncrBy(ctx, "counter", 1)
	require.NoError(t, err)

	// Fresh counter has no expiry.
	ttl, err := backend.TTL(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), ttl)

	ok, err := backend.Expire(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err = backend.TTL(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(2 * time.Minute)

	_, err = backend.TTL(ctx, "counter")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisBackend_DeletePattern(t *testing.T) {
	backend, _ := SetupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "product:1", "a", 0))
	require.NoError(t, backend.Set(ctx, "product:2", "b", 0))
	require.NoError(t, backend.Set(ctx, "order:1", "c", 0))

	deleted, err := backend.DeletePattern(ctx, "product:*")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, err = backend.Get(ctx, "product:1")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := backend.Get(ctx, "order:1")
	require.NoError(t, err)
	assert.Equal(t, "c", got)
}

func TestRedisBackend_Ping(t *testing.T) {
	backend, mr := SetupTestRedis(t)

	assert.NoError(t, backend.Ping(context.Background()))

	mr.Close()
	assert.Error(t, backend.Ping(context.Background()))
}
