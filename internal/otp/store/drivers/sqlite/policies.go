package sqlite

import (
	"context"
	"time"

	"github.com/ChertChill/otp-service/internal/otp/domain"
)

type policiesRepo struct {
	db dbtx
}

func (r *policiesRepo) Read(ctx context.Context) (domain.OtpPolicy, error) {
	var (
		length     int
		ttlSeconds int64
	)
	row := r.db.QueryRowContext(ctx,
		`SELECT length, ttl_seconds FROM otp_policy WHERE id = 1`)
	if err := row.Scan(&length, &ttlSeconds); err != nil {
		return domain.OtpPolicy{}, mapNotFound(err)
	}

	return domain.OtpPolicy{
		Length: length,
		TTL:    time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func (r *policiesRepo) Replace(ctx context.Context, p domain.OtpPolicy) error {
	// The singleton row is seeded by the initial migration, so a plain
	// UPDATE is a wholesale replace.
	_, err := r.db.ExecContext(ctx,
		`UPDATE otp_policy SET length = ?, ttl_seconds = ? WHERE id = 1`,
		p.Length, int64(p.TTL/time.Second),
	)
	return err
}
