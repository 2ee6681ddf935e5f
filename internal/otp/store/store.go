package store

import (
	"context"
	"errors"
	"time"

	"github.com/ChertChill/otp-service/internal/otp/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today,
// anything else later) implement this. It exposes sub-repositories to keep
// concerns tidy and testable.
type Store interface {
	OtpCodes() OtpCodes
	Policies() Policies
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns
	// nil and rolling back otherwise. Preferred over Tx for most callers.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type OtpCodes interface {
	// Insert persists a new code and returns the store-assigned id.
	Insert(ctx context.Context, c domain.OtpCode) (int64, error)

	// FindByCode looks a code up by its value (system-wide, not per user).
	FindByCode(ctx context.Context, code string) (domain.OtpCode, error)

	// TransitionStatus atomically moves one code from `from` to `to`.
	// Returns false without error when the code was no longer in `from`,
	// which is how concurrent racers learn they lost. This is the
	// conditional-update primitive the validation path relies on; a plain
	// read-then-write is not a substitute.
	TransitionStatus(ctx context.Context, id int64, from, to domain.OtpStatus) (bool, error)

	// ExpireOlderThan bulk-transitions Active codes created before
	// now-ttl to Expired and returns how many moved.
	ExpireOlderThan(ctx context.Context, ttl time.Duration) (int64, error)

	// DeleteAllForUser removes every code belonging to a user, used when
	// the owning principal is removed.
	DeleteAllForUser(ctx context.Context, userID string) error
}

type Policies interface {
	// Read returns the singleton OTP policy.
	Read(ctx context.Context) (domain.OtpPolicy, error)

	// Replace swaps the singleton policy wholesale.
	Replace(ctx context.Context, p domain.OtpPolicy) error
}

type Users interface {
	// Create inserts a new user (id is provided by the app via ULID).
	Create(ctx context.Context, u domain.User) error

	// GetByID returns a user by id.
	GetByID(ctx context.Context, id string) (domain.User, error)

	// GetByUsername is used during login.
	GetByUsername(ctx context.Context, username string) (domain.User, error)

	// ListNonAdmins returns every user without the admin role.
	ListNonAdmins(ctx context.Context) ([]domain.User, error)

	// AdminExists reports whether any admin account is registered.
	AdminExists(ctx context.Context) (bool, error)

	// Delete removes a user; otp_codes cascade per schema.
	Delete(ctx context.Context, userID string) error
}
