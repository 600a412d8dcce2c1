package jwtx

import (
	"time"

	"github.com/aussiebroadwan/examania/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants for the session cookies. These match the
// cookie lifetimes, so changing one without the other leaves the browser
// holding tokens it can no longer use.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Kind separates access tokens from refresh tokens. Each kind is signed with
// its own secret, and the kind is also written to the "use" claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// Claims are the session claims carried by both token kinds. Refresh tokens
// only ever carry the subject and email; Name and Role are dropped on sign.
type Claims struct {
	jwt.RegisteredClaims

	// Use records which kind of token this is ("access" or "refresh")
	Use Kind `json:"use"`

	// Email is the normalised (trimmed, lower-cased) login email
	Email string `json:"email"`

	// Name is the display name, access tokens only
	Name string `json:"name,omitempty"`

	// Role is one of ADMIN, TEACHER or STUDENT, access tokens only
	Role string `json:"role,omitempty"`
}

// NewClaims builds the identity part of a claim set. Times, kind and jti are
// filled in by the codec when the token is signed.
func NewClaims(subject, email, name, role string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
		},
		Email: email,
		Name:  name,
		Role:  role,
	}
}

// Expiry returns the expiry time, or the zero time when the claim is absent.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// minimise strips everything a refresh token must not carry.
func (c Claims) minimise() Claims {
	c.Name = ""
	c.Role = ""
	return c
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() (string, error) {
	return cryptox.GenerateToken(cryptox.TokenSize128)
}
