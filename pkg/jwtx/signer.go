package jwtx

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sign turns the claims into a signed token of the given kind that expires
// ttl from now. The codec owns iat, exp, jti, iss and use; whatever the caller
// set there is overwritten.
func (c *Codec) Sign(kind Kind, claims Claims, ttl time.Duration) (string, error) {
	secret, err := c.secret(kind)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", ErrInvalidTTL
	}

	if kind == KindRefresh {
		claims = claims.minimise()
	}

	jti, err := NewJTI()
	if err != nil {
		return "", fmt.Errorf("jwtx: %w", err)
	}

	now := c.now().UTC()
	claims.Use = kind
	claims.Issuer = c.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = jti

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}
