package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/examania/internal/session/domain"
	"github.com/aussiebroadwan/examania/internal/session/store"
	"github.com/aussiebroadwan/examania/pkg/cryptox"
	"github.com/aussiebroadwan/examania/pkg/idx"
	"github.com/aussiebroadwan/examania/pkg/slogx"
)

var (
	ErrBootstrapDisabled            = errors.New("bootstrap not enabled")
	ErrBootstrapAlready             = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized        = errors.New("unauthorized bootstrap attempt")
	ErrBootstrapFailedToCreateAdmin = errors.New("failed to create admin user")
)

// BootstrapService creates the first ADMIN account on an empty directory.
type BootstrapService struct {
	Store       store.Store
	Credentials CredentialVerifier
	Token       string // Pre-configured bootstrap token, empty disables bootstrap
}

func (s *BootstrapService) Enabled() bool { return s.Token != "" }

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap returns the new admin's id.
func (s *BootstrapService) Bootstrap(ctx context.Context, token string, req domain.BootstrapData) (string, error) {
	l := slogx.FromContext(ctx)

	if !s.Enabled() {
		return "", ErrBootstrapDisabled
	}
	if !cryptox.TokensEqual(token, s.Token) {
		l.Warn("unauthorized bootstrap attempt")
		return "", ErrBootstrapUnauthorized
	}

	hash, err := s.Credentials.Hash(req.AdminPassword)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return "", ErrBootstrapFailedToCreateAdmin
	}

	admin := domain.User{
		ID:           idx.New().String(),
		Email:        domain.NormalizeEmail(req.AdminEmail),
		Name:         strings.TrimSpace(req.AdminName),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}

	// Emptiness check and insert share a transaction so two racing calls
	// cannot both create an admin.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrBootstrapAlready
		}
		return tx.Users().CreateUser(ctx, admin)
	})
	switch {
	case errors.Is(err, ErrBootstrapAlready):
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return "", ErrBootstrapAlready
	case err != nil:
		l.Error("failed to create admin user", slog.Any("error", err))
		return "", ErrBootstrapFailedToCreateAdmin
	}

	l.Info("bootstrap complete", "admin_id", admin.ID)
	return admin.ID, nil
}
