package domain

import "time"

// Role determines which API surface a principal may call.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the principal a code or session belongs to. The username doubles
// as the delivery address for the user's preferred channel (email address,
// phone number, chat id or file path).
type User struct {
	ID           string // ULID
	Username     string
	PasswordHash string // argon2id PHC string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the administrative role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
