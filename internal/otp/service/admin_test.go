package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ChertChill/otp-service/internal/otp/domain"
	"github.com/ChertChill/otp-service/internal/otp/store"
	"github.com/ChertChill/otp-service/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestUpdateOtpPolicyEnforcesBounds(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	otp := &OtpService{Store: st}
	svc := &AdminService{Store: st, Otp: otp}

	t.Run("length below minimum rejected", func(t *testing.T) {
		err := svc.UpdateOtpPolicy(ctx, 3, 5*time.Minute)
		require.ErrorIs(t, err, ErrPolicyBounds)
	})

	t.Run("ttl below minimum rejected", func(t *testing.T) {
		err := svc.UpdateOtpPolicy(ctx, 6, 30*time.Second)
		require.ErrorIs(t, err, ErrPolicyBounds)
	})

	t.Run("rejected updates leave the policy untouched", func(t *testing.T) {
		policy, err := otp.GetPolicy(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.DefaultOtpPolicy, policy)
	})

	t.Run("boundary values accepted", func(t *testing.T) {
		require.NoError(t, svc.UpdateOtpPolicy(ctx, 4, time.Minute))

		policy, err := otp.GetPolicy(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.OtpPolicy{Length: 4, TTL: time.Minute}, policy)
	})
}

func TestDeleteUserRemovesUserAndCodes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	otp := &OtpService{Store: st}
	svc := &AdminService{Store: st, Otp: otp}

	user := createTestUser(t, st, "alice@example.com", domain.RoleUser)
	keep := createTestUser(t, st, "bob@example.com", domain.RoleUser)

	code, err := otp.Generate(ctx, user.ID, "")
	require.NoError(t, err)
	keepCode, err := otp.Generate(ctx, keep.ID, "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, user.ID))

	_, err = st.Users().GetByID(ctx, user.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.OtpCodes().FindByCode(ctx, code)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Unrelated users and codes survive.
	_, err = st.Users().GetByID(ctx, keep.ID)
	require.NoError(t, err)
	ok, err := otp.Validate(ctx, keepCode)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDeleteUserUnknownID(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &AdminService{Store: st, Otp: &OtpService{Store: st}}

	err := svc.DeleteUser(ctx, idx.New().String())
	require.ErrorIs(t, err, ErrUserNotFound)
	require.False(t, errors.Is(err, store.ErrNotFound))
}

func TestListUsersExcludesAdmins(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &AdminService{Store: st, Otp: &OtpService{Store: st}}

	createTestUser(t, st, "root@example.com", domain.RoleAdmin)
	alice := createTestUser(t, st, "alice@example.com", domain.RoleUser)
	bob := createTestUser(t, st, "bob@example.com", domain.RoleUser)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	ids := []string{users[0].ID, users[1].ID}
	require.ElementsMatch(t, []string{alice.ID, bob.ID}, ids)
}
