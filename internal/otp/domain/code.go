package domain

import "time"

// OtpStatus is the lifecycle state of a one-time code. A code starts Active
// and moves to exactly one of the terminal states, never back.
type OtpStatus string

const (
	StatusActive  OtpStatus = "ACTIVE"
	StatusUsed    OtpStatus = "USED"
	StatusExpired OtpStatus = "EXPIRED"
)

// OtpCode models one issued one-time code. The surrogate id is assigned by
// the store at insert time. Code values are looked up system-wide during
// validation, so among Active codes a value behaves as unique.
type OtpCode struct {
	ID          int64
	UserID      string
	OperationID string // optional correlation id for the authorized action
	Code        string // digit string, length per policy at generation time
	Status      OtpStatus
	CreatedAt   time.Time
}

// ExpiresAt returns the instant this code stops being valid under ttl.
func (c OtpCode) ExpiresAt(ttl time.Duration) time.Time {
	return c.CreatedAt.Add(ttl)
}
