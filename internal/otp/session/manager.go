// Package session issues and validates the bearer tokens that authenticate
// API callers. Tokens are HS256 JWTs for transport, but the Store remains
// authoritative: a token that is absent from the store is invalid no matter
// what its signature says, which is what makes revocation immediate.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/ChertChill/otp-service/internal/otp/domain"
	"github.com/ChertChill/otp-service/pkg/idx"
	"github.com/ChertChill/otp-service/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL matches the reference behavior: sessions live 30 minutes with
// no sliding expiration.
const DefaultTTL = 30 * time.Minute

var ErrSecretRequired = errors.New("session: signing secret is required")

// Claims embeds the registered JWT claims plus the caller's role so
// middleware can log it without a store round-trip.
type Claims struct {
	Username string `json:"preferred_username,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues, validates, and revokes session tokens.
type Manager struct {
	store  Store
	secret []byte
	issuer string
	ttl    time.Duration

	now func() time.Time // swappable for tests
}

func NewManager(store Store, secret []byte, issuer string, ttl time.Duration) (*Manager, error) {
	if len(secret) == 0 {
		return nil, ErrSecretRequired
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:  store,
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a fresh token for the user and records it in the store with
// expiry = now + ttl. The ULID jti makes every token distinct even for the
// same user within the same second.
func (m *Manager) Issue(ctx context.Context, user domain.User) (string, error) {
	now := m.now()
	expiry := now.Add(m.ttl)

	claims := Claims{
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        idx.New().String(),
			Subject:   user.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", err
	}

	err = m.store.Put(ctx, token, domain.Session{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: expiry,
	})
	if err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("session issued",
		"user_id", user.ID, "expires_at", expiry)
	return token, nil
}

// Validate re-checks the token against the store on every call; validity
// is never cached. An expired session is removed on first observation and
// reported invalid; validating it again is still just invalid, not an
// error. Live sessions come back unchanged: no sliding expiration.
func (m *Manager) Validate(ctx context.Context, token string) (domain.Session, bool) {
	if _, err := m.parse(token); err != nil {
		return domain.Session{}, false
	}

	s, ok, err := m.store.Get(ctx, token)
	if err != nil || !ok {
		return domain.Session{}, false
	}

	if s.Expired(m.now()) {
		_ = m.store.Delete(ctx, token)
		return domain.Session{}, false
	}
	return s, true
}

// Revoke unconditionally removes the token; a no-op when absent.
func (m *Manager) Revoke(ctx context.Context, token string) {
	_ = m.store.Delete(ctx, token)
}

// parse verifies the token signature and issuer. Claim validation is left
// off on purpose: liveness (including expiry) is decided by the store so
// that an expired session still gets evicted on first observation. This
// only filters out garbage and tokens signed by someone else before they
// touch the store.
func (m *Manager) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Issuer != m.issuer {
		return nil, jwt.ErrTokenInvalidIssuer
	}
	return claims, nil
}
