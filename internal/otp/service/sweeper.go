package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper periodically expires stale codes so they become unusable promptly
// even when nobody attempts to validate them. It talks to the engine only
// through SweepExpired, whose conditional updates make concurrent sweeps
// and validations race-safe.
type Sweeper struct {
	Otp      *OtpService
	Logger   *slog.Logger
	Interval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewSweeper creates a sweeper with the given interval. If interval is 0 or
// negative, defaults to 1 minute.
func NewSweeper(otp *OtpService, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		Otp:      otp,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the background loop. The first sweep runs one full
// interval after start; sweeps run inline on a single goroutine, so two can
// never overlap.
func (s *Sweeper) Start() {
	go s.run()
	s.Logger.Info("otp sweeper started", "interval", s.Interval)
}

// Stop cancels the pending run without waiting for an in-flight sweep; the
// sweep's context is canceled so the goroutine can exit promptly. Safe to
// call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.Logger.Info("otp sweeper stopped")
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stopCh
		cancel()
	}()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopCh:
			return
		}
	}
}

// sweep runs one iteration. Errors are logged and swallowed so a transient
// persistence failure never kills the schedule; the next tick retries.
func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.Otp.SweepExpired(ctx)
	if err != nil {
		s.Logger.Error("otp sweep failed", "error", err)
		return
	}
	s.Logger.Debug("otp sweep completed", "expired", n)
}
