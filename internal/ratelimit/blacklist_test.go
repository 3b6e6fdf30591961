package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlacklist_PermanentEntry(t *testing.T) {
	store, mr := setupStore(t)
	bl := NewBlacklist(store, &mockLogger{})
	ctx := context.Background()

	bl.Add(ctx, "1.2.3.4", "abuse", 0)

	assert.True(t, bl.IsBlocked(ctx, "1.2.3.4"))

	// No TTL: still blocked arbitrarily far in the future.
	mr.FastForward(1000 * time.Hour)
	assert.True(t, bl.IsBlocked(ctx, "1.2.3.4"))

	bl.Remove(ctx, "1.2.3.4")
	assert.False(t, bl.IsBlocked(ctx, "1.2.3.4"))
}

func TestBlacklist_TemporaryEntryExpires(t *testing.T) {
	store, mr := setupStore(t)
	bl := NewBlacklist(store, &mockLogger{})
	ctx := context.Background()

	bl.Add(ctx, "5.6.7.8", "suspicious burst", 10*time.Minute)
	assert.True(t, bl.IsBlocked(ctx, "5.6.7.8"))

	mr.FastForward(11 * time.Minute)
	assert.False(t, bl.IsBlocked(ctx, "5.6.7.8"))
}

func TestBlacklist_RemoveIsIdempotent(t *testing.T) {
	store, _ := setupStore(t)
	bl := NewBlacklist(store, &mockLogger{})
	ctx := context.Background()

	// Removing an address that was never added must not blow up.
	bl.Remove(ctx, "9.9.9.9")
	assert.False(t, bl.IsBlocked(ctx, "9.9.9.9"))
}

func TestBlacklist_EntryRoundTrip(t *testing.T) {
	store, _ := setupStore(t)
	bl := NewBlacklist(store, &mockLogger{})
	ctx := context.Background()

	bl.Add(ctx, "1.2.3.4", "abuse", 0)

	entry, ok := bl.Get(ctx, "1.2.3.4")
	require.True(t, ok)
	assert.Equal(t, "abuse", entry.Reason)
	assert.True(t, entry.Permanent)
	assert.WithinDuration(t, time.Now().UTC(), entry.CreatedAt, time.Minute)

	bl.Add(ctx, "5.6.7.8", "rate abuse", time.Hour)
	entry, ok = bl.Get(ctx, "5.6.7.8")
	require.True(t, ok)
	assert.False(t, entry.Permanent)

	_, ok = bl.Get(ctx, "8.8.8.8")
	assert.False(t, ok)
}
