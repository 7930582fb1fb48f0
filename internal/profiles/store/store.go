package store

import (
	"context"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Repositories obtained from the Store run each call on its own
// pooled connection; repositories obtained from a Tx share that transaction.
// Writing to the outbox is only possible through a Tx so an event can never be
// recorded outside the transaction of the change that raised it.
type Store interface {
	Users() Users
	Profiles() Profiles
	Outbox() OutboxLog

	ApplyMigrations() error

	// Begin starts a read/write transaction. The caller MUST call Commit or
	// Rollback on the returned Tx.
	Begin(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. The transaction is committed
	// only when fn returns nil; every other exit path (error, panic, context
	// cancellation) rolls it back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a single open transaction bound to one connection. A Tx must not be
// used after Commit or Rollback, and must not be shared between goroutines.
type Tx interface {
	Users() Users
	Profiles() Profiles
	Outbox() Outbox

	// Commit makes every write in the transaction durable and visible.
	Commit() error

	// Rollback discards the transaction. Calling it after Commit is a no-op.
	Rollback() error
}

type Users interface {
	// CreateUser inserts u along with any pending reset requests. A taken
	// email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a user up by its normalised email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// LockUserByEmail is GetUserByEmail holding a row lock until the end of
	// the surrounding transaction.
	LockUserByEmail(ctx context.Context, email string) (domain.User, error)

	// LockUserByResetToken finds the user holding a pending reset request with
	// token and locks the row.
	LockUserByResetToken(ctx context.Context, token string) (domain.User, error)

	// UpdateUser writes email, password hash and role, and replaces the set of
	// pending reset requests with u.PasswordResets. It is atomic even when
	// called outside a Tx.
	UpdateUser(ctx context.Context, u domain.User) error
}

type Profiles interface {
	// CreateProfile inserts p. A taken username yields ErrAlreadyExists.
	CreateProfile(ctx context.Context, p domain.Profile) error

	GetProfileByID(ctx context.Context, id string) (domain.Profile, error)
	GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (domain.Profile, error)

	// UpdateProfile writes the mutable profile fields and bumps updated_at.
	UpdateProfile(ctx context.Context, p domain.Profile) error

	CountProfiles(ctx context.Context) (int64, error)
}

// Outbox appends entries within a transaction.
type Outbox interface {
	InsertEntry(ctx context.Context, e domain.OutboxEntry) error
}

// OutboxLog is the relay side of the outbox.
type OutboxLog interface {
	// ListByCorrelationID returns entries for one request in insertion order.
	ListByCorrelationID(ctx context.Context, correlationID string) ([]domain.OutboxEntry, error)

	// ListPending returns up to limit undispatched entries inserted before
	// before, oldest first.
	ListPending(ctx context.Context, before time.Time, limit int) ([]domain.OutboxEntry, error)

	// MarkDispatched records delivery of an entry. Marking an entry twice keeps
	// the first timestamp.
	MarkDispatched(ctx context.Context, id string, at time.Time) error
}
