package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/quickcart/backend/internal/cache"
	"github.com/quickcart/backend/internal/config"
	"github.com/quickcart/backend/internal/logger"
)

const rateLimitPrefix = "rate_limit:"

// ScopeGlobal counts all requests from one identifier against a single
// budget regardless of which resource they hit.
const ScopeGlobal = "global"

// Result is the outcome of a single rate-limit check.
type Result struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long the caller should wait before the window
	// resets. Only meaningful when Allowed is false.
	RetryAfter time.Duration
}

// Limiter counts requests in fixed, non-overlapping windows per
// (scope, identifier, resource path). Bursts straddling a window boundary can
// admit up to twice the limit in quick succession; a property of fixed-window
// counting, not a defect.
type Limiter struct {
	store  *cache.Store
	cfg    config.RateLimitConfig
	scope  string
	logger logger.Logger
}

// NewLimiter creates a limiter for the given scope. Per-path budgets and the
// default budget come from configuration.
func NewLimiter(store *cache.Store, cfg config.RateLimitConfig, scope string, l logger.Logger) *Limiter {
	return &Limiter{
		store:  store,
		cfg:    cfg,
		scope:  scope,
		logger: l,
	}
}

// Check counts one request from identifier against path's budget and reports
// whether it is allowed. The window TTL is attached by whichever increment
// created the counter; later increments never refresh it.
func (l *Limiter) Check(ctx context.Context, identifier, path string) Result {
	rule := l.cfg.Rule(path)
	key := l.key(identifier, path)

	count := l.store.IncrementWithWindow(ctx, key, time.Duration(rule.Window))
	if count == 0 {
		// Backend failure surfaced as a safe default; let the request through.
		return Result{Allowed: true, Remaining: rule.Calls - 1}
	}

	if count > int64(rule.Calls) {
		retryAfter := time.Duration(rule.Window)
		if remaining, ok := l.store.TTL(ctx, key); ok {
			retryAfter = remaining
		}

		l.logger.Warn("Rate limit exceeded",
			logger.String("scope", l.scope),
			logger.String("identifier", identifier),
			logger.String("path", path),
			logger.Int64("count", count))

		return Result{Allowed: false, RetryAfter: retryAfter}
	}

	return Result{Allowed: true, Remaining: rule.Calls - int(count)}
}

func (l *Limiter) key(identifier, path string) string {
	if l.scope == ScopeGlobal {
		return fmt.Sprintf("%s%s:%s", rateLimitPrefix, l.scope, identifier)
	}
	return fmt.Sprintf("%s%s:%s:%s", rateLimitPrefix, l.scope, identifier, path)
}

// ClientIP resolves the identifier for a request: the first entry of
// X-Forwarded-For when present, the direct connection address otherwise.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
