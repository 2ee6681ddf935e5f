package service

import (
	"context"
	"errors"
	"time"

	"github.com/ChertChill/otp-service/internal/otp/domain"
	"github.com/ChertChill/otp-service/internal/otp/session"
	"github.com/ChertChill/otp-service/internal/otp/store"
	"github.com/ChertChill/otp-service/pkg/cryptox"
	"github.com/ChertChill/otp-service/pkg/idx"
	"github.com/ChertChill/otp-service/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUsernameTaken      = errors.New("username_taken")
	ErrAdminExists        = errors.New("admin_already_exists")
)

// UserService manages the user registry and the login boundary where
// session tokens are minted.
type UserService struct {
	Store    store.Store
	Sessions *session.Manager
}

// Register creates a user with an argon2id password hash. At most one
// admin account may exist.
func (s *UserService) Register(ctx context.Context, username, password string, role domain.Role) (domain.User, error) {
	if role == domain.RoleAdmin {
		exists, err := s.Store.Users().AdminExists(ctx)
		if err != nil {
			return domain.User{}, err
		}
		if exists {
			return domain.User{}, ErrAdminExists
		}
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user registered",
		"user_id", user.ID, "username", username, "role", role)
	return user, nil
}

// Login checks the password and issues a session token. Every failure mode
// collapses into ErrInvalidCredentials so callers cannot probe which
// usernames exist.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	return s.Sessions.Issue(ctx, user)
}

// Logout revokes the session token; a no-op for unknown tokens.
func (s *UserService) Logout(ctx context.Context, token string) {
	s.Sessions.Revoke(ctx, token)
}

// GetByID returns a user, mapping store misses to ErrUserNotFound.
func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, error) {
	user, err := s.Store.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}
