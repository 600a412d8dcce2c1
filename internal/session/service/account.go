package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/examania/internal/session/domain"
	"github.com/aussiebroadwan/examania/pkg/cryptox"
	"github.com/aussiebroadwan/examania/pkg/idx"
	"github.com/aussiebroadwan/examania/pkg/slogx"
)

var ErrInvalidCredentials = errors.New("service: invalid credentials")

// Session is what a successful login or registration produces.
type Session struct {
	Identity    domain.Identity
	Credentials domain.CredentialPair
}

type AccountService struct {
	Directory   UserDirectory
	Credentials CredentialVerifier
	Issuer      *SessionIssuer
	Observer    Observer

	// DefaultRole is given to self-registered accounts
	DefaultRole domain.Role
}

// Login checks the password and issues a new credential pair. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (Session, error) {
	obs := observerOrNop(s.Observer)
	log := slogx.FromContext(ctx)
	email = domain.NormalizeEmail(email)

	user, err := s.Directory.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		_ = s.Credentials.Burn(password)
		obs.ObserveLogin(OutcomeInvalidCreds)
		return Session{}, ErrInvalidCredentials
	case err != nil:
		obs.ObserveLogin(OutcomeUnavailable)
		return Session{}, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	if err := s.Credentials.Verify(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrMismatch) {
			log.Error("stored password hash unreadable", "user_id", user.ID, "err", err)
		}
		obs.ObserveLogin(OutcomeInvalidCreds)
		return Session{}, ErrInvalidCredentials
	}

	sess, err := s.open(user)
	if err != nil {
		obs.ObserveLogin(OutcomeError)
		return Session{}, err
	}

	log.Info("user logged in", "user_id", user.ID, "role", user.Role)
	obs.ObserveLogin(OutcomeOK)
	return sess, nil
}

// Register creates the account and logs it in. Input is expected to be
// validated already.
func (s *AccountService) Register(ctx context.Context, acct domain.NewAccount) (Session, error) {
	obs := observerOrNop(s.Observer)
	log := slogx.FromContext(ctx)

	role := acct.Role
	if role == "" {
		role = s.DefaultRole
	}
	if role == "" {
		role = domain.RoleTeacher
	}

	email := domain.NormalizeEmail(acct.Email)
	_, err := s.Directory.FindByEmail(ctx, email)
	switch {
	case err == nil:
		obs.ObserveRegistration(OutcomeConflict)
		return Session{}, ErrEmailTaken
	case !errors.Is(err, ErrUserNotFound):
		obs.ObserveRegistration(OutcomeUnavailable)
		return Session{}, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	hash, err := s.Credentials.Hash(acct.Password)
	if err != nil {
		obs.ObserveRegistration(OutcomeError)
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(acct.Name),
		PasswordHash: hash,
		Role:         role,
	}

	// A concurrent registration can still win the race to the unique index
	if err := s.Directory.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			obs.ObserveRegistration(OutcomeConflict)
			return Session{}, ErrEmailTaken
		}
		obs.ObserveRegistration(OutcomeUnavailable)
		return Session{}, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	sess, err := s.open(user)
	if err != nil {
		obs.ObserveRegistration(OutcomeError)
		return Session{}, err
	}

	log.Info("user registered", "user_id", user.ID, "role", user.Role)
	obs.ObserveRegistration(OutcomeOK)
	return sess, nil
}

func (s *AccountService) open(user domain.User) (Session, error) {
	id := user.Identity()
	pair, err := s.Issuer.IssuePair(id)
	if err != nil {
		return Session{}, fmt.Errorf("issue credentials: %w", err)
	}
	return Session{Identity: id, Credentials: pair}, nil
}
