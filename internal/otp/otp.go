package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quickcart/backend/internal/cache"
	"github.com/quickcart/backend/internal/config"
	"github.com/quickcart/backend/internal/logger"
)

const (
	codePrefix     = "otp:"
	attemptsPrefix = "otp_attempts:"
	blockedPrefix  = "otp_blocked:"
)

var (
	// ErrExpiredOrNotFound means no active code exists for the phone: it was
	// never issued, already consumed, or lapsed past its TTL.
	ErrExpiredOrNotFound = errors.New("otp code expired or not found")

	// ErrInvalidCode means the submitted code didn't match the active one.
	ErrInvalidCode = errors.New("invalid otp code")

	// ErrTooManyAttempts means the failed-attempt budget is spent; the active
	// code has been discarded and the phone is flagged for the lockout window.
	ErrTooManyAttempts = errors.New("too many failed otp attempts")
)

// Issued describes a freshly issued code.
type Issued struct {
	Code      string
	ExpiresIn time.Duration
}

// Flow drives phone verification on top of the shared store. A phone holds at
// most one active code; issuing again overwrites the unconsumed one. The
// lockout flag does not gate Verify internally; production callers are
// expected to consult IsBlocked before issuing or verifying.
type Flow struct {
	store  *cache.Store
	cfg    config.OTPConfig
	logger logger.Logger
}

// NewFlow creates a verification flow with the configured expiry, attempt
// budget and lockout window.
func NewFlow(store *cache.Store, cfg config.OTPConfig, l logger.Logger) *Flow {
	return &Flow{
		store:  store,
		cfg:    cfg,
		logger: l,
	}
}

// Issue generates a fresh 6-digit code for phone and stores it with the
// configured expiry. Any previous unconsumed code is overwritten and the
// stale attempt counter is dropped so it cannot carry forward.
func (f *Flow) Issue(ctx context.Context, phone string) (Issued, error) {
	code, err := GenerateCode(codeLength)
	if err != nil {
		return Issued{}, fmt.Errorf("failed to generate otp code: %w", err)
	}

	expiry := time.Duration(f.cfg.ExpiryMinutes) * time.Minute
	if !f.store.Set(ctx, codePrefix+phone, code, expiry) {
		return Issued{}, fmt.Errorf("failed to store otp code for %s", phone)
	}
	f.store.Delete(ctx, attemptsPrefix+phone)

	f.logger.Info("OTP issued",
		logger.String("phone", phone),
		logger.Duration("expires_in", expiry))

	return Issued{Code: code, ExpiresIn: expiry}, nil
}

// Verify checks a submitted code. On success the code and its attempt counter
// are deleted, so a consumed code can never be replayed. On the attempt that
// exhausts the budget, the code is discarded and the phone is flagged for the
// lockout window.
func (f *Flow) Verify(ctx context.Context, phone, code string) error {
	stored, ok := f.store.Get(ctx, codePrefix+phone)
	if !ok {
		return ErrExpiredOrNotFound
	}

	if stored != code {
		// The attempt counter inherits the code's lifetime when this failure
		// creates it.
		expiry := time.Duration(f.cfg.ExpiryMinutes) * time.Minute
		attempts := f.store.IncrementWithWindow(ctx, attemptsPrefix+phone, expiry)

		if attempts >= int64(f.cfg.MaxAttempts) {
			f.store.Delete(ctx, codePrefix+phone)
			f.store.Set(ctx, blockedPrefix+phone, "1", time.Duration(f.cfg.Lockout))

			f.logger.Warn("Phone locked out after failed OTP attempts",
				logger.String("phone", phone),
				logger.Int64("attempts", attempts))

			return ErrTooManyAttempts
		}

		return ErrInvalidCode
	}

	f.store.Delete(ctx, codePrefix+phone)
	f.store.Delete(ctx, attemptsPrefix+phone)

	f.logger.Info("Phone verified", logger.String("phone", phone))
	return nil
}

// IsBlocked reports whether phone is inside a lockout window. Callers gate
// Issue and Verify on this; Verify itself doesn't check it.
func (f *Flow) IsBlocked(ctx context.Context, phone string) bool {
	return f.store.Exists(ctx, blockedPrefix+phone)
}
