package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/quickcart/backend/internal/logger"
	"github.com/quickcart/backend/internal/otp"
)

// ErrPhoneBlocked means the phone is inside a lockout window and no code will
// be issued or checked for it.
var ErrPhoneBlocked = errors.New("phone is temporarily blocked")

// SMSSender delivers an issued code. Delivery mechanics live with the
// provider integration, not here.
type SMSSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LogSender is the delivery-disabled mode: it logs the code instead of
// sending it, for environments without an SMS provider configured.
type LogSender struct {
	Logger logger.Logger
}

func (s LogSender) SendOTP(ctx context.Context, phone, code string) error {
	s.Logger.Info("SMS delivery disabled, logging OTP",
		logger.String("phone", phone),
		logger.String("code", code))
	return nil
}

// Service is the authentication collaborator: it owns the caller contract
// around the verification flow (lockout check before issue/verify) plus code
// delivery.
type Service struct {
	flow   *otp.Flow
	sms    SMSSender
	logger logger.Logger
}

func NewService(flow *otp.Flow, sms SMSSender, l logger.Logger) *Service {
	return &Service{
		flow:   flow,
		sms:    sms,
		logger: l,
	}
}

// RequestOTP issues a code for phone and hands it to the SMS sender. Returns
// how many seconds the code stays valid.
func (s *Service) RequestOTP(ctx context.Context, phone string) (int, error) {
	if s.flow.IsBlocked(ctx, phone) {
		return 0, ErrPhoneBlocked
	}

	issued, err := s.flow.Issue(ctx, phone)
	if err != nil {
		return 0, err
	}

	if err := s.sms.SendOTP(ctx, phone, issued.Code); err != nil {
		// The code is stored and stays verifiable; delivery is retryable by
		// requesting again.
		return 0, fmt.Errorf("failed to send otp: %w", err)
	}

	return int(issued.ExpiresIn.Seconds()), nil
}

// ConfirmOTP verifies a submitted code for phone.
func (s *Service) ConfirmOTP(ctx context.Context, phone, code string) error {
	if s.flow.IsBlocked(ctx, phone) {
		return ErrPhoneBlocked
	}

	return s.flow.Verify(ctx, phone, code)
}
