package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ChertChill/otp-service/internal/otp/domain"
	"github.com/ChertChill/otp-service/internal/otp/store"
	"github.com/ChertChill/otp-service/pkg/slogx"
)

var ErrPolicyBounds = errors.New("policy_out_of_bounds")

// AdminService is the administrative boundary: it validates policy bounds
// before they reach the engine and manages user removal.
type AdminService struct {
	Store store.Store
	Otp   *OtpService
}

// UpdateOtpPolicy enforces the sanity bounds (length >= 4, ttl >= 60s) and
// replaces the policy.
func (s *AdminService) UpdateOtpPolicy(ctx context.Context, length int, ttl time.Duration) error {
	if length < domain.MinCodeLength {
		return fmt.Errorf("%w: length %d < %d", ErrPolicyBounds, length, domain.MinCodeLength)
	}
	if ttl < domain.MinCodeTTL {
		return fmt.Errorf("%w: ttl %s < %s", ErrPolicyBounds, ttl, domain.MinCodeTTL)
	}
	return s.Otp.UpdatePolicy(ctx, length, ttl)
}

// ListUsers returns every non-admin user.
func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListNonAdmins(ctx)
}

// DeleteUser removes a user and every code they own in one transaction.
// The schema cascade would catch the codes anyway; deleting them
// explicitly keeps the behavior independent of driver FK settings.
func (s *AdminService) DeleteUser(ctx context.Context, userID string) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return err
		}
		if err := tx.OtpCodes().DeleteAllForUser(ctx, userID); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	slogx.FromContext(ctx).Info("user deleted with codes", "user_id", userID)
	return nil
}
