package httpx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/examania/pkg/httpx"
	"github.com/aussiebroadwan/examania/pkg/jwtx"
	"github.com/aussiebroadwan/examania/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))

	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRecover(t *testing.T) {
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}), httpx.Recover())

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "server_error")
	require.NotContains(t, rec.Body.String(), "kaboom")
	require.NotContains(t, rec.Body.String(), "goroutine")
}

func TestRecoverReportsRequestID(t *testing.T) {
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}), slogx.HTTPMiddleware(slogx.Discard()), httpx.Recover())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(slogx.RequestIDHeader, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV")
	rec := serve(h, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"request_id":"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"`)
}

func TestSecurityHeaders(t *testing.T) {
	rec := serve(httpx.Chain(okHandler, httpx.SecurityHeaders()), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

type stubVerifier struct {
	claims jwtx.Claims
	err    error
	kinds  []jwtx.Kind
}

func (s *stubVerifier) Verify(kind jwtx.Kind, token string) (jwtx.Claims, error) {
	s.kinds = append(s.kinds, kind)
	if token != "good" {
		return jwtx.Claims{}, errors.New("bad token")
	}
	return s.claims, s.err
}

func TestAuthnMiddleware(t *testing.T) {
	v := &stubVerifier{claims: jwtx.NewClaims("user-1", "a@b.co", "A", "ADMIN")}

	var got jwtx.Claims
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = httpx.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}), httpx.AuthnMiddleware(v, "accessToken"))

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: "good"})
		rec := serve(h, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "user-1", got.Subject)
		require.Equal(t, jwtx.KindAccess, v.kinds[len(v.kinds)-1])
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		require.Equal(t, http.StatusOK, serve(h, req).Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.True(t, strings.HasPrefix(rec.Header().Get("WWW-Authenticate"), "Bearer"))
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: "forged"})
		rec := serve(h, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid_token")
	})
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}

	t.Run("single object", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"x@y.z"}`))
		require.NoError(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &dst))
		require.Equal(t, "x@y.z", dst.Email)
	})

	t.Run("trailing data", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"x"}{"email":"y"}`))
		require.Error(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &dst))
	})

	t.Run("too large", func(t *testing.T) {
		big := `{"email":"` + strings.Repeat("a", httpx.MaxJSONBody) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		require.ErrorIs(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &dst), httpx.ErrBodyTooLarge)
	})
}
