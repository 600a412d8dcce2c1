package service

import (
	"time"

	"github.com/aussiebroadwan/examania/pkg/jwtx"
)

// DefaultRenewalThreshold is how close to expiry an access token has to be
// before the gate renews it. Independent of the access TTL.
const DefaultRenewalThreshold = 5 * time.Minute

// Check is the verdict on a single credential. Err keeps the underlying cause
// for logs and metrics only; callers branch on Valid.
type Check struct {
	Valid  bool
	Claims jwtx.Claims
	Err    error
}

// SessionVerifier classifies credentials. Every failure, structural or
// cryptographic, collapses to Valid == false.
type SessionVerifier struct {
	Codec TokenCodec
}

func NewSessionVerifier(codec TokenCodec) *SessionVerifier {
	return &SessionVerifier{Codec: codec}
}

func (v *SessionVerifier) CheckAccess(token string) Check {
	return v.check(jwtx.KindAccess, token)
}

func (v *SessionVerifier) CheckRefresh(token string) Check {
	return v.check(jwtx.KindRefresh, token)
}

func (v *SessionVerifier) check(kind jwtx.Kind, token string) Check {
	claims, err := v.Codec.Verify(kind, token)
	if err != nil {
		return Check{Err: err}
	}
	return Check{Valid: true, Claims: claims}
}

// IsExpiringSoon reports whether less than threshold remains before the
// token's expiry: exp - now < threshold. A token that cannot be decoded, or
// has no exp, counts as expiring.
func (v *SessionVerifier) IsExpiringSoon(token string, threshold time.Duration) bool {
	claims, err := v.Codec.DecodeUnsafe(token)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.Expiry().Sub(v.Codec.Now()) < threshold
}
