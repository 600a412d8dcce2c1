package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrKindMismatch = errors.New("jwtx: token kind mismatch")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// Verify checks signature, algorithm, kind and expiry and returns the claims.
//
// A token is valid strictly before its expiry: at exp == now it is already
// expired. Every failure comes back as one of the sentinel errors above.
func (c *Codec) Verify(kind Kind, tokenStr string) (Claims, error) {
	secret, err := c.secret(kind)
	if err != nil {
		return Claims{}, err
	}
	if tokenStr == "" {
		return Claims{}, ErrMalformed
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	parser := jwt.NewParser(opts...)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		// jwt reports an absent iss as a missing claim, not a wrong issuer
		if c.issuer != "" && claims.Issuer == "" && claims.ExpiresAt != nil &&
			errors.Is(err, jwt.ErrTokenRequiredClaimMissing) {
			return Claims{}, ErrIssuer
		}
		return Claims{}, mapParseError(err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidClaim
	}

	// The secrets already separate the kinds, the claim is a second check
	if claims.Use != kind {
		return Claims{}, ErrKindMismatch
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidClaim
	}

	return *claims, nil
}

// DecodeUnsafe reads the claims without checking the signature or expiry.
// Only use it to look at timing claims of a token that was, or is about to
// be, verified properly.
func (c *Codec) DecodeUnsafe(tokenStr string) (Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return Claims{}, ErrMalformed
	}
	return *claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	default:
		return ErrInvalidClaim
	}
}
