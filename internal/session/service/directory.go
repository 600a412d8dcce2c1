package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/examania/internal/session/domain"
	"github.com/aussiebroadwan/examania/internal/session/store"
	"github.com/aussiebroadwan/examania/pkg/idx"
)

var (
	ErrUserNotFound = errors.New("service: user not found")
	ErrEmailTaken   = errors.New("service: email already registered")
)

// UserDirectory resolves users for login, registration and renewal. Lookups
// that find nothing return ErrUserNotFound; anything else is a store failure.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	Create(ctx context.Context, u domain.User) error
}

// CredentialVerifier hashes and checks passwords. *cryptox.Hasher is the
// production implementation.
type CredentialVerifier interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) error

	// Burn spends the cost of a Verify and always fails.
	Burn(password string) error
}

// StoreDirectory is the UserDirectory backed by the persistent store.
type StoreDirectory struct {
	Store store.Store
}

func NewStoreDirectory(st store.Store) *StoreDirectory {
	return &StoreDirectory{Store: st}
}

// FindByID answers ErrUserNotFound for ids that are not ULIDs without asking
// the store.
func (d *StoreDirectory) FindByID(ctx context.Context, id string) (domain.User, error) {
	if _, err := idx.Parse(id); err != nil {
		return domain.User{}, ErrUserNotFound
	}
	u, err := d.Store.Users().GetUserByID(ctx, id)
	return u, mapStoreError(err)
}

func (d *StoreDirectory) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := d.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	return u, mapStoreError(err)
}

func (d *StoreDirectory) Create(ctx context.Context, u domain.User) error {
	return mapStoreError(d.Store.Users().CreateUser(ctx, u))
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrEmailTaken
	default:
		return fmt.Errorf("user directory: %w", err)
	}
}
