package service

import (
	"time"

	"github.com/aussiebroadwan/examania/internal/session/domain"
	"github.com/aussiebroadwan/examania/pkg/jwtx"
)

// TokenCodec is the slice of *jwtx.Codec the session services use.
type TokenCodec interface {
	Sign(kind jwtx.Kind, claims jwtx.Claims, ttl time.Duration) (string, error)
	Verify(kind jwtx.Kind, token string) (jwtx.Claims, error)
	DecodeUnsafe(token string) (jwtx.Claims, error)
	Now() time.Time
}

// SessionIssuer mints credentials from an identity. It has no side effects.
type SessionIssuer struct {
	Codec      TokenCodec
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewSessionIssuer(codec TokenCodec, accessTTL, refreshTTL time.Duration) *SessionIssuer {
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}
	return &SessionIssuer{Codec: codec, AccessTTL: accessTTL, RefreshTTL: refreshTTL}
}

// IssuePair mints a fresh access and refresh token for id.
func (s *SessionIssuer) IssuePair(id domain.Identity) (domain.CredentialPair, error) {
	access, err := s.IssueAccess(id)
	if err != nil {
		return domain.CredentialPair{}, err
	}

	// The codec drops name and role from refresh tokens
	refresh, err := s.Codec.Sign(jwtx.KindRefresh, claimsFor(id), s.RefreshTTL)
	if err != nil {
		return domain.CredentialPair{}, err
	}

	return domain.CredentialPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccess mints only an access token, used by renewal.
func (s *SessionIssuer) IssueAccess(id domain.Identity) (string, error) {
	return s.Codec.Sign(jwtx.KindAccess, claimsFor(id), s.AccessTTL)
}

func claimsFor(id domain.Identity) jwtx.Claims {
	return jwtx.NewClaims(id.ID, id.Email, id.Name, id.Role.String())
}

// IdentityFromClaims is the inverse of claimsFor. For refresh claims Name and
// Role come back empty.
func IdentityFromClaims(c jwtx.Claims) domain.Identity {
	return domain.Identity{
		ID:    c.Subject,
		Email: c.Email,
		Name:  c.Name,
		Role:  domain.Role(c.Role),
	}
}
