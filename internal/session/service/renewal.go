package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/examania/internal/session/domain"
	"github.com/aussiebroadwan/examania/pkg/slogx"
)

var (
	// ErrSessionExpired means the refresh token did not verify. The caller
	// should clear both cookies.
	ErrSessionExpired = errors.New("service: session expired")

	// ErrDirectoryUnavailable means the directory kept failing after retries.
	ErrDirectoryUnavailable = errors.New("service: user directory unavailable")
)

const (
	DefaultRenewalTimeout = 3 * time.Second
	DefaultRenewalRetries = 1
)

// Renewal is a freshly minted access token and the identity it was built from.
type Renewal struct {
	AccessToken string
	Identity    domain.Identity
}

// RenewalCoordinator exchanges a refresh token for a new access token. The
// identity is always re-read from the directory, so role changes and deleted
// users take effect at the next renewal. Refresh tokens are not rotated.
//
// Renew holds no state between calls; concurrent renewals of the same refresh
// token each mint their own access token.
type RenewalCoordinator struct {
	Verifier  *SessionVerifier
	Issuer    *SessionIssuer
	Directory UserDirectory
	Observer  Observer

	// Timeout bounds each directory lookup, Retries is the number of extra
	// attempts after a store failure.
	Timeout time.Duration
	Retries int
}

func (c *RenewalCoordinator) Renew(ctx context.Context, refreshToken string) (Renewal, error) {
	start := time.Now()
	obs := observerOrNop(c.Observer)
	log := slogx.FromContext(ctx)

	check := c.Verifier.CheckRefresh(refreshToken)
	if !check.Valid {
		log.Debug("refresh token rejected", "err", check.Err)
		obs.ObserveRenewal(OutcomeExpired, time.Since(start))
		return Renewal{}, ErrSessionExpired
	}

	user, err := c.lookup(ctx, check.Claims.Subject)
	switch {
	case errors.Is(err, ErrUserNotFound):
		log.Info("refresh token for unknown user", "user_id", check.Claims.Subject)
		obs.ObserveRenewal(OutcomeUnknownUser, time.Since(start))
		return Renewal{}, ErrUserNotFound
	case err != nil:
		log.Error("renewal lookup failed", "user_id", check.Claims.Subject, "err", err)
		obs.ObserveRenewal(OutcomeUnavailable, time.Since(start))
		return Renewal{}, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	id := user.Identity()
	access, err := c.Issuer.IssueAccess(id)
	if err != nil {
		obs.ObserveRenewal(OutcomeError, time.Since(start))
		return Renewal{}, fmt.Errorf("issue access token: %w", err)
	}

	obs.ObserveRenewal(OutcomeOK, time.Since(start))
	return Renewal{AccessToken: access, Identity: id}, nil
}

// lookup retries store failures a bounded number of times. A missing user is
// an answer, not a failure, and is never retried.
func (c *RenewalCoordinator) lookup(ctx context.Context, userID string) (domain.User, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultRenewalTimeout
	}
	retries := max(c.Retries, 0)

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.User{}, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		user, err := c.Directory.FindByID(attemptCtx, userID)
		cancel()

		if err == nil || errors.Is(err, ErrUserNotFound) {
			return user, err
		}
		lastErr = err
	}

	return domain.User{}, lastErr
}
