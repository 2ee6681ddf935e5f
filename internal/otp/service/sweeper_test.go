package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ChertChill/otp-service/internal/otp/domain"
	"github.com/stretchr/testify/require"
)

func TestSweeperFirstRunWaitsOneInterval(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com", domain.RoleUser)

	_, err := st.OtpCodes().Insert(ctx, domain.OtpCode{
		UserID:    user.ID,
		Code:      "424242",
		Status:    domain.StatusActive,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(t, err)

	sweeper := NewSweeper(&OtpService{Store: st}, slog.Default(), 200*time.Millisecond)
	sweeper.Start()
	t.Cleanup(sweeper.Stop)

	// No sweep happens at startup; the stale code is still Active.
	time.Sleep(50 * time.Millisecond)
	rec, err := st.OtpCodes().FindByCode(ctx, "424242")
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, rec.Status)

	// After the first tick the code is expired.
	require.Eventually(t, func() bool {
		rec, err := st.OtpCodes().FindByCode(ctx, "424242")
		return err == nil && rec.Status == domain.StatusExpired
	}, 2*time.Second, 25*time.Millisecond)
}

func TestSweeperStopIsIdempotentAndPrompt(t *testing.T) {
	st := newTestStore(t)

	sweeper := NewSweeper(&OtpService{Store: st}, slog.Default(), time.Hour)
	sweeper.Start()

	done := make(chan struct{})
	go func() {
		sweeper.Stop()
		sweeper.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return promptly")
	}
}

func TestSweeperDefaultsInterval(t *testing.T) {
	sweeper := NewSweeper(nil, slog.Default(), 0)
	require.Equal(t, time.Minute, sweeper.Interval)
}
