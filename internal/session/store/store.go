package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/examania/internal/session/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this and
// expose sub-repositories, which keeps transactions from nesting by accident.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. A nil return commits, anything
	// else rolls back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail expects an already normalised email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID). A
	// duplicate email maps to ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateRole changes the role and bumps updated_at. No route calls it
	// yet; tests use it to change a role under a live session.
	UpdateRole(ctx context.Context, userID string, role domain.Role) error

	// DeleteUser removes the account. Like UpdateRole it has no route; tests
	// use it to make renewal find no user.
	DeleteUser(ctx context.Context, userID string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}
