package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ChertChill/otp-service/internal/otp/domain"
	"github.com/ChertChill/otp-service/internal/otp/notify"
	"github.com/ChertChill/otp-service/internal/otp/store"
	"github.com/ChertChill/otp-service/internal/otp/store/drivers/sqlite"
	"github.com/ChertChill/otp-service/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func createTestUser(t *testing.T, st store.Store, username string, role domain.Role) domain.User {
	t.Helper()

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().Create(context.Background(), user))
	return user
}

// recordingSender captures the last message instead of delivering it.
type recordingSender struct {
	mu   sync.Mutex
	text string
	fail bool
}

func (s *recordingSender) Send(ctx context.Context, address, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	if s.fail {
		return errors.New("backend unavailable")
	}
	return nil
}

func (s *recordingSender) lastCode(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	i := strings.LastIndex(s.text, " ")
	require.Positive(t, i)
	return s.text[i+1:]
}

func TestGenerateProducesDigitsOfPolicyLength(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com", domain.RoleUser)

	svc := &OtpService{Store: st}

	code, err := svc.Generate(ctx, user.ID, "order-42")
	require.NoError(t, err)
	require.Len(t, code, domain.DefaultOtpPolicy.Length)
	for _, r := range code {
		require.True(t, r >= '0' && r <= '9', "code must be digits only, got %q", code)
	}

	rec, err := st.OtpCodes().FindByCode(ctx, code)
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, rec.Status)
	require.Equal(t, user.ID, rec.UserID)
	require.Equal(t, "order-42", rec.OperationID)
	require.Positive(t, rec.ID)
}

func TestValidateConsumesCodeExactlyOnce(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com", domain.RoleUser)

	svc := &OtpService{Store: st}

	code, err := svc.Generate(ctx, user.ID, "")
	require.NoError(t, err)

	ok, err := svc.Validate(ctx, code)
	require.NoError(t, err)
	require.True(t, ok)

	// The same code must never be accepted twice.
	ok, err = svc.Validate(ctx, code)
	require.NoError(t, err)
	require.False(t, ok)

	rec, err := st.OtpCodes().FindByCode(ctx, code)
	require.NoError(t, err)
	require.Equal(t, domain.StatusUsed, rec.Status)
}

func TestValidateRejectsUnknownCode(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	svc := &OtpService{Store: st}

	ok, err := svc.Validate(ctx, "000000")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValidateRejectsAndExpiresStaleCode(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com", domain.RoleUser)

	svc := &OtpService{Store: st}

	// Persist a code just past the default 300s TTL.
	_, err := st.OtpCodes().Insert(ctx, domain.OtpCode{
		UserID:    user.ID,
		Code:      "123456",
		Status:    domain.StatusActive,
		CreatedAt: time.Now().UTC().Add(-301 * time.Second),
	})
	require.NoError(t, err)

	ok, err := svc.Validate(ctx, "123456")
	require.NoError(t, err)
	require.False(t, ok)

	rec, err := st.OtpCodes().FindByCode(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, domain.StatusExpired, rec.Status)

	// Rejection is terminal: re-validating stays invalid.
	ok, err = svc.Validate(ctx, "123456")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPolicyTTLAppliesToOutstandingCodes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com", domain.RoleUser)

	svc := &OtpService{Store: st}

	// A code two minutes old is fine under the default 5 minute TTL.
	_, err := st.OtpCodes().Insert(ctx, domain.OtpCode{
		UserID:    user.ID,
		Code:      "777777",
		Status:    domain.StatusActive,
		CreatedAt: time.Now().UTC().Add(-2 * time.Minute),
	})
	require.NoError(t, err)

	// Shrink the TTL below the code's age; expiry is evaluated against the
	// policy in effect at validation time, not at issuance.
	require.NoError(t, svc.UpdatePolicy(ctx, 6, time.Minute))

	ok, err := svc.Validate(ctx, "777777")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDispatchToUnknownUserLeavesNoCode(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	out := filepath.Join(t.TempDir(), "codes.txt")
	svc := &OtpService{
		Store:      st,
		Dispatcher: notify.NewDispatcher(nil, nil, nil, notify.NewFileSender(out)),
	}

	err := svc.DispatchToUser(ctx, idx.New().String(), "", notify.ChannelFile)
	require.ErrorIs(t, err, ErrUserNotFound)

	// Nothing was generated, so nothing was delivered.
	_, statErr := os.Stat(out)
	require.True(t, os.IsNotExist(statErr))
}

func TestDispatchDeliveryFailureLeavesCodeValid(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com", domain.RoleUser)

	sender := &recordingSender{fail: true}
	svc := &OtpService{
		Store:      st,
		Dispatcher: notify.NewDispatcher(sender, nil, nil, nil),
	}

	err := svc.DispatchToUser(ctx, user.ID, "", notify.ChannelEmail)
	require.ErrorIs(t, err, ErrDeliveryFailed)

	// The code survived the failed delivery and is still usable.
	code := sender.lastCode(t)
	ok, err := svc.Validate(ctx, code)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDispatchOverUnwiredChannelRejected(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com", domain.RoleUser)

	svc := &OtpService{
		Store:      st,
		Dispatcher: notify.NewDispatcher(nil, nil, nil, notify.NewFileSender(filepath.Join(t.TempDir(), "codes.txt"))),
	}

	err := svc.DispatchToUser(ctx, user.ID, "", notify.ChannelSMS)
	require.ErrorIs(t, err, ErrUnsupportedChannel)
}

func TestDispatchWritesCodeToFile(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com", domain.RoleUser)

	out := filepath.Join(t.TempDir(), "codes.txt")
	svc := &OtpService{
		Store:      st,
		Dispatcher: notify.NewDispatcher(nil, nil, nil, notify.NewFileSender(out)),
	}

	require.NoError(t, svc.DispatchToUser(ctx, user.ID, "", notify.ChannelFile))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	require.Contains(t, line, user.Username)

	code := line[strings.LastIndex(line, " ")+1:]
	ok, err := svc.Validate(ctx, code)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSweepExpiredOnlyTouchesStaleActiveCodes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com", domain.RoleUser)

	svc := &OtpService{Store: st}
	old := time.Now().UTC().Add(-10 * time.Minute)

	_, err := st.OtpCodes().Insert(ctx, domain.OtpCode{
		UserID: user.ID, Code: "111111", Status: domain.StatusActive, CreatedAt: old,
	})
	require.NoError(t, err)

	usedID, err := st.OtpCodes().Insert(ctx, domain.OtpCode{
		UserID: user.ID, Code: "222222", Status: domain.StatusActive, CreatedAt: old,
	})
	require.NoError(t, err)
	moved, err := st.OtpCodes().TransitionStatus(ctx, usedID, domain.StatusActive, domain.StatusUsed)
	require.NoError(t, err)
	require.True(t, moved)

	_, err = st.OtpCodes().Insert(ctx, domain.OtpCode{
		UserID: user.ID, Code: "333333", Status: domain.StatusActive, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	n, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	rec, err := st.OtpCodes().FindByCode(ctx, "111111")
	require.NoError(t, err)
	require.Equal(t, domain.StatusExpired, rec.Status)

	// A consumed code keeps its Used state forever.
	rec, err = st.OtpCodes().FindByCode(ctx, "222222")
	require.NoError(t, err)
	require.Equal(t, domain.StatusUsed, rec.Status)

	rec, err = st.OtpCodes().FindByCode(ctx, "333333")
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, rec.Status)

	// Sweeping again finds nothing new.
	n, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestConcurrentValidationAcceptsExactlyOne(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com", domain.RoleUser)

	svc := &OtpService{Store: st}

	code, err := svc.Generate(ctx, user.ID, "")
	require.NoError(t, err)

	const callers = 16
	type outcome struct {
		ok  bool
		err error
	}
	results := make(chan outcome, callers)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(callers)
	for range callers {
		go func() {
			defer done.Done()
			start.Wait()
			ok, err := svc.Validate(ctx, code)
			results <- outcome{ok: ok, err: err}
		}()
	}
	start.Done()
	done.Wait()
	close(results)

	accepted := 0
	for res := range results {
		require.NoError(t, res.err)
		if res.ok {
			accepted++
		}
	}
	require.Equal(t, 1, accepted)

	rec, err := st.OtpCodes().FindByCode(ctx, code)
	require.NoError(t, err)
	require.Equal(t, domain.StatusUsed, rec.Status)
}

func TestUpdatePolicyAffectsSubsequentGenerates(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com", domain.RoleUser)

	svc := &OtpService{Store: st}

	require.NoError(t, svc.UpdatePolicy(ctx, 8, 10*time.Minute))

	policy, err := svc.GetPolicy(ctx)
	require.NoError(t, err)
	require.Equal(t, 8, policy.Length)
	require.Equal(t, 10*time.Minute, policy.TTL)

	code, err := svc.Generate(ctx, user.ID, "")
	require.NoError(t, err)
	require.Len(t, code, 8)
}
