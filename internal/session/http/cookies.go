package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/examania/internal/session/domain"
	"github.com/aussiebroadwan/examania/pkg/authsdk"
)

// Cookies writes the two session cookies. Both are HttpOnly, SameSite=Strict
// and scoped to the whole site; Max-Age follows the matching token TTL.
type Cookies struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c Cookies) SetPair(w http.ResponseWriter, pair domain.CredentialPair) {
	c.SetAccess(w, pair.AccessToken)
	http.SetCookie(w, c.cookie(authsdk.RefreshCookieName, pair.RefreshToken, c.RefreshTTL))
}

func (c Cookies) SetAccess(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.cookie(authsdk.AccessCookieName, token, c.AccessTTL))
}

// Clear expires both cookies.
func (c Cookies) Clear(w http.ResponseWriter) {
	for _, name := range []string{authsdk.AccessCookieName, authsdk.RefreshCookieName} {
		ck := c.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		http.SetCookie(w, ck)
	}
}

func (c Cookies) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// tokensFrom reads both cookies; a missing cookie reads as "".
func tokensFrom(r *http.Request) (access, refresh string) {
	if ck, err := r.Cookie(authsdk.AccessCookieName); err == nil {
		access = ck.Value
	}
	if ck, err := r.Cookie(authsdk.RefreshCookieName); err == nil {
		refresh = ck.Value
	}
	return access, refresh
}
