package domain

import "time"

// Session is one authenticated API session. The token itself is handed to
// the caller once at login; the store keys sessions by the token value and
// remains authoritative for validity, so revocation works even though the
// token is a self-describing JWT.
type Session struct {
	UserID    string
	Username  string
	Role      Role
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at the given
// instant.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
