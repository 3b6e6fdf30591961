package ratelimit

import (
	"context"
	"time"

	"github.com/quickcart/backend/internal/cache"
	"github.com/quickcart/backend/internal/logger"
)

const blacklistPrefix = "blacklist:ip:"

// Entry records why an address was blocked. It lives entirely in the cache;
// when the backing key is gone, the address is no longer blocked.
type Entry struct {
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
	Permanent bool      `json:"permanent"`
}

// Blacklist is a presence/absence record per IP address, optionally
// self-expiring.
type Blacklist struct {
	store  *cache.Store
	logger logger.Logger
}

// NewBlacklist creates a blacklist on top of the shared store.
func NewBlacklist(store *cache.Store, l logger.Logger) *Blacklist {
	return &Blacklist{store: store, logger: l}
}

// Add blocks ip. A zero duration blocks it permanently, otherwise the entry
// expires after duration.
func (b *Blacklist) Add(ctx context.Context, ip, reason string, duration time.Duration) {
	entry := Entry{
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
		Permanent: duration == 0,
	}

	b.store.Set(ctx, blacklistPrefix+ip, entry, duration)

	b.logger.Info("IP blacklisted",
		logger.String("ip", ip),
		logger.String("reason", reason),
		logger.Duration("duration", duration))
}

// Remove unblocks ip. Removing an address that isn't blocked is a no-op.
func (b *Blacklist) Remove(ctx context.Context, ip string) {
	if b.store.Delete(ctx, blacklistPrefix+ip) {
		b.logger.Info("IP removed from blacklist", logger.String("ip", ip))
	}
}

// IsBlocked reports whether ip currently has a live blacklist entry.
func (b *Blacklist) IsBlocked(ctx context.Context, ip string) bool {
	return b.store.Exists(ctx, blacklistPrefix+ip)
}

// Get returns the entry for ip for moderation tooling.
func (b *Blacklist) Get(ctx context.Context, ip string) (Entry, bool) {
	var entry Entry
	if !b.store.GetJSON(ctx, blacklistPrefix+ip, &entry) {
		return Entry{}, false
	}
	return entry, true
}
