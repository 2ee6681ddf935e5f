package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/ChertChill/otp-service/internal/otp/domain"
)

type otpCodesRepo struct {
	db dbtx
}

func (r *otpCodesRepo) Insert(ctx context.Context, c domain.OtpCode) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_codes (user_id, operation_id, code, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.UserID,
		mapStringNull(c.OperationID),
		c.Code,
		string(c.Status),
		c.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *otpCodesRepo) FindByCode(ctx context.Context, code string) (domain.OtpCode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, operation_id, code, status, created_at
		 FROM otp_codes WHERE code = ?
		 ORDER BY created_at DESC LIMIT 1`,
		code,
	)
	return scanOtpCode(row)
}

// TransitionStatus is the single conditional update the engine's atomicity
// guarantees rest on: the row moves only if its status still equals `from`,
// and the affected-rows count tells the caller whether it won the race.
func (r *otpCodesRepo) TransitionStatus(ctx context.Context, id int64, from, to domain.OtpStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE otp_codes SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *otpCodesRepo) ExpireOlderThan(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	res, err := r.db.ExecContext(ctx,
		`UPDATE otp_codes SET status = ? WHERE status = ? AND created_at < ?`,
		string(domain.StatusExpired), string(domain.StatusActive), cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *otpCodesRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE user_id = ?`, userID)
	return err
}

func scanOtpCode(row *sql.Row) (domain.OtpCode, error) {
	var (
		c     domain.OtpCode
		opID  sql.NullString
		state string
	)
	if err := row.Scan(&c.ID, &c.UserID, &opID, &c.Code, &state, &c.CreatedAt); err != nil {
		return domain.OtpCode{}, mapNotFound(err)
	}
	c.OperationID = mapNullString(opID)
	c.Status = domain.OtpStatus(state)
	return c, nil
}
