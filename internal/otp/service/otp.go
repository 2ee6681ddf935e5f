package service

import (
	"context"
	"errors"
	"time"

	"github.com/ChertChill/otp-service/internal/otp/domain"
	"github.com/ChertChill/otp-service/internal/otp/notify"
	"github.com/ChertChill/otp-service/internal/otp/store"
	"github.com/ChertChill/otp-service/pkg/cryptox"
	"github.com/ChertChill/otp-service/pkg/slogx"
)

var (
	ErrUserNotFound = errors.New("user_not_found")

	// ErrDeliveryFailed wraps backend failures from DispatchToUser. The
	// generated code stays Active: the caller may retry delivery over
	// another channel and the code remains independently valid until it
	// expires.
	ErrDeliveryFailed = notify.ErrDeliveryFailed

	ErrUnsupportedChannel = notify.ErrUnsupportedChannel
)

// OtpService owns the one-time code lifecycle: generation, delivery,
// validation, and expiry. All status transitions go through the store's
// conditional-update primitive, so concurrent validators and the sweeper
// can never both win the same code.
type OtpService struct {
	Store      store.Store
	Dispatcher *notify.Dispatcher
}

// Generate produces a code of the configured policy length and persists it
// as Active with the current timestamp. No delivery happens here.
func (s *OtpService) Generate(ctx context.Context, userID, operationID string) (string, error) {
	policy, err := s.Store.Policies().Read(ctx)
	if err != nil {
		return "", err
	}

	code, err := cryptox.GenerateDigits(policy.Length)
	if err != nil {
		return "", err
	}

	id, err := s.Store.OtpCodes().Insert(ctx, domain.OtpCode{
		UserID:      userID,
		OperationID: operationID,
		Code:        code,
		Status:      domain.StatusActive,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("otp generated",
		"otp_id", id, "user_id", userID, "operation_id", operationID)
	return code, nil
}

// DispatchToUser generates a code and delivers it to the user over the
// requested channel. The user's username doubles as the channel address.
// The user is resolved before anything is persisted, so a nonexistent
// principal leaves no code behind; a delivery failure after generation
// does NOT roll the code back; it stays Active and valid until expiry.
func (s *OtpService) DispatchToUser(ctx context.Context, userID, operationID string, channel notify.Channel) error {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("otp dispatch for unknown user", "user_id", userID)
			return ErrUserNotFound
		}
		return err
	}

	code, err := s.Generate(ctx, userID, operationID)
	if err != nil {
		return err
	}

	text := "Your one-time code: " + code
	if err := s.Dispatcher.Send(ctx, channel, user.Username, text); err != nil {
		l.Warn("otp delivery failed",
			"user_id", userID, "channel", channel, "error", err)
		return err
	}

	l.Info("otp dispatched", "user_id", userID, "channel", channel)
	return nil
}

// Validate consumes a code. The result is false for every failure mode
// (unknown code, wrong state, expired) so the API boundary cannot leak
// which codes exist. Acceptance happens only when the conditional
// Active→Used transition lands, which at most one concurrent caller can
// observe.
func (s *OtpService) Validate(ctx context.Context, code string) (bool, error) {
	l := slogx.FromContext(ctx)

	rec, err := s.Store.OtpCodes().FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("otp validation: code not found")
			return false, nil
		}
		return false, err
	}

	if rec.Status != domain.StatusActive {
		l.Warn("otp validation: code not active", "otp_id", rec.ID, "status", rec.Status)
		return false, nil
	}

	policy, err := s.Store.Policies().Read(ctx)
	if err != nil {
		return false, err
	}

	if time.Now().After(rec.ExpiresAt(policy.TTL)) {
		// Expire this specific code together with the rejection. If a
		// concurrent validator or the sweeper got there first the
		// transition is a no-op, and the answer is rejection either way.
		if _, err := s.Store.OtpCodes().TransitionStatus(ctx, rec.ID, domain.StatusActive, domain.StatusExpired); err != nil {
			return false, err
		}
		l.Warn("otp validation: code expired", "otp_id", rec.ID)
		return false, nil
	}

	ok, err := s.Store.OtpCodes().TransitionStatus(ctx, rec.ID, domain.StatusActive, domain.StatusUsed)
	if err != nil {
		return false, err
	}
	if !ok {
		// Lost the race: another caller consumed or expired it between
		// our read and the conditional update.
		l.Warn("otp validation: lost transition race", "otp_id", rec.ID)
		return false, nil
	}

	l.Info("otp validated", "otp_id", rec.ID, "user_id", rec.UserID)
	return true, nil
}

// SweepExpired bulk-expires every Active code older than the TTL in effect
// at sweep time. Idempotent and safe to run concurrently with Validate:
// each code's terminal state is decided by whichever conditional update
// lands first.
func (s *OtpService) SweepExpired(ctx context.Context) (int64, error) {
	policy, err := s.Store.Policies().Read(ctx)
	if err != nil {
		return 0, err
	}

	n, err := s.Store.OtpCodes().ExpireOlderThan(ctx, policy.TTL)
	if err != nil {
		return 0, err
	}

	if n > 0 {
		slogx.FromContext(ctx).Info("otp sweep expired codes", "count", n)
	}
	return n, nil
}

// GetPolicy returns the policy currently in effect.
func (s *OtpService) GetPolicy(ctx context.Context) (domain.OtpPolicy, error) {
	return s.Store.Policies().Read(ctx)
}

// UpdatePolicy replaces the singleton policy wholesale. It affects codes
// generated afterwards and every TTL window evaluated afterwards; recorded
// CreatedAt values are untouched. Bounds are the admin boundary's job.
func (s *OtpService) UpdatePolicy(ctx context.Context, length int, ttl time.Duration) error {
	if err := s.Store.Policies().Replace(ctx, domain.OtpPolicy{Length: length, TTL: ttl}); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("otp policy updated", "length", length, "ttl", ttl)
	return nil
}
