package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/examania/pkg/jwtx"
	"github.com/aussiebroadwan/examania/pkg/slogx"
)

// TokenVerifier is the part of jwtx.Codec the authn middleware needs.
type TokenVerifier interface {
	Verify(kind jwtx.Kind, token string) (jwtx.Claims, error)
}

// AuthnMiddleware requires a valid access token, taken from the named cookie
// or, failing that, from an "Authorization: Bearer" header. It never renews.
func AuthnMiddleware(v TokenVerifier, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := accessTokenFrom(r, cookieName)
			if raw == "" {
				writeBearerError(w, "missing access token")
				return
			}

			claims, err := v.Verify(jwtx.KindAccess, raw)
			if err != nil {
				log.Debug("access token rejected", "err", err)
				writeBearerError(w, "the access token is invalid or expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClaims(ctx, claims)))
		})
	}
}

func accessTokenFrom(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}

// RFC 6750 style error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_token",
		"error_description": desc,
	})
}
