package http_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/examania/internal/session/domain"
	"github.com/aussiebroadwan/examania/internal/session/gate"
	sessionhttp "github.com/aussiebroadwan/examania/internal/session/http"
	"github.com/aussiebroadwan/examania/internal/session/metrics"
	"github.com/aussiebroadwan/examania/internal/session/service"
	"github.com/aussiebroadwan/examania/internal/session/store/drivers/sqlite"
	"github.com/aussiebroadwan/examania/pkg/authsdk"
	"github.com/aussiebroadwan/examania/pkg/cryptox"
	"github.com/aussiebroadwan/examania/pkg/httpx"
	"github.com/aussiebroadwan/examania/pkg/jwtx"
	"github.com/aussiebroadwan/examania/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	clock  *clock
	store  *sqlite.Store
	hasher *cryptox.Hasher
	srv    *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{clock: &clock{now: time.Now().UTC().Truncate(time.Second)}}

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	e.store = st

	e.hasher, err = cryptox.NewHasher("test-pepper")
	require.NoError(t, err)

	codec, err := jwtx.NewCodec(
		[]byte("http-access-secret"),
		[]byte("http-refresh-secret"),
		jwtx.WithIssuer("examania"),
		jwtx.WithClock(e.clock.Now),
	)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	dir := service.NewStoreDirectory(st)
	issuer := service.NewSessionIssuer(codec, 15*time.Minute, 7*24*time.Hour)
	verifier := service.NewSessionVerifier(codec)
	renewer := &service.RenewalCoordinator{
		Verifier:  verifier,
		Issuer:    issuer,
		Directory: dir,
		Observer:  collector,
		Timeout:   time.Second,
		Retries:   1,
	}

	g := gate.New(gate.DefaultRoutes(), verifier, renewer, 5*time.Minute)
	g.Observer = collector

	router := sessionhttp.NewRouter(codec, "test", st, slogx.Discard())
	router.Cookies = sessionhttp.Cookies{AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour}
	router.Gate = g
	router.Renewer = renewer
	router.AccountService = &service.AccountService{
		Directory:   dir,
		Credentials: e.hasher,
		Issuer:      issuer,
		Observer:    collector,
		DefaultRole: domain.RoleTeacher,
	}
	router.BootstrapService = &service.BootstrapService{
		Store:       st,
		Credentials: e.hasher,
		Token:       "bootstrap-token",
	}
	router.Metrics = metrics.Handler(reg)
	router.ApplyRoutes()

	e.srv = httptest.NewServer(router)
	t.Cleanup(e.srv.Close)

	return e
}

func (e *env) client() *authsdk.SDKClient {
	return authsdk.NewSDKClient(e.srv.URL)
}

func (e *env) registered(t *testing.T) *authsdk.SDKClient {
	t.Helper()
	c := e.client()
	_, err := c.Register(context.Background(), authsdk.RegisterRequest{
		Name: "María López", Email: "maria@examania.com", Password: "secreto1",
	})
	require.NoError(t, err)
	return c
}

func page(t *testing.T, c *authsdk.SDKClient, path string) *http.Response {
	t.Helper()
	resp, err := c.Page(context.Background(), path)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp
}

func setCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegisterLoginSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	c := e.client()
	resp, err := c.Register(ctx, authsdk.RegisterRequest{
		Name: "María López", Email: " Maria@Examania.com ", Password: "secreto1",
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "maria@examania.com", resp.User.Email)
	require.Equal(t, "TEACHER", resp.User.Role)
	require.NotEmpty(t, c.Cookie(authsdk.AccessCookieName))
	require.NotEmpty(t, c.Cookie(authsdk.RefreshCookieName))

	user, err := c.Session(ctx)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, user.ID)

	other := e.client()
	_, err = other.Login(ctx, "maria@examania.com", "wrong-password")
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	_, err = other.Login(ctx, "nadie@examania.com", "secreto1")
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	login, err := other.Login(ctx, "MARIA@examania.com", "secreto1")
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterRejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.registered(t)

	_, err := e.client().Register(ctx, authsdk.RegisterRequest{
		Name: "Otra", Email: "maria@examania.com", Password: "secreto1",
	})
	require.ErrorIs(t, err, authsdk.ErrEmailTaken)

	_, err = e.client().Register(ctx, authsdk.RegisterRequest{Name: "Al", Email: "nope", Password: "123"})
	var valErr *authsdk.ValidationError
	require.True(t, errors.As(err, &valErr))
	require.Len(t, valErr.Fields, 3)
}

func TestMalformedBody(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Post(e.srv.URL+"/api/auth/login", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionCookieAttributes(t *testing.T) {
	e := newEnv(t)
	e.registered(t)

	body := strings.NewReader(`{"email":"maria@examania.com","password":"secreto1"}`)
	resp, err := http.Post(e.srv.URL+"/api/auth/login", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	access := setCookie(resp, authsdk.AccessCookieName)
	require.NotNil(t, access)
	require.True(t, access.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, access.SameSite)
	require.Equal(t, "/", access.Path)
	require.Equal(t, 15*60, access.MaxAge)

	refresh := setCookie(resp, authsdk.RefreshCookieName)
	require.NotNil(t, refresh)
	require.Equal(t, 7*24*60*60, refresh.MaxAge)

	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.NotEmpty(t, resp.Header.Get(slogx.RequestIDHeader))
}

func TestGatedPages(t *testing.T) {
	e := newEnv(t)
	anon := e.client()
	user := e.registered(t)

	tests := []struct {
		name     string
		client   *authsdk.SDKClient
		path     string
		status   int
		location string
	}{
		{"anonymous dashboard", anon, "/dashboard", http.StatusTemporaryRedirect, "/login"},
		{"anonymous nested protected", anon, "/perfil/editar", http.StatusTemporaryRedirect, "/login"},
		{"anonymous login", anon, "/login", http.StatusOK, ""},
		{"anonymous root", anon, "/", http.StatusTemporaryRedirect, "/login"},
		{"user login", user, "/login", http.StatusTemporaryRedirect, "/dashboard"},
		{"user register", user, "/register", http.StatusTemporaryRedirect, "/dashboard"},
		{"user dashboard", user, "/dashboard", http.StatusOK, ""},
		{"user inicio", user, "/inicio", http.StatusOK, ""},
		{"user root", user, "/", http.StatusTemporaryRedirect, "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := page(t, tt.client, tt.path)
			require.Equal(t, tt.status, resp.StatusCode)
			require.Equal(t, tt.location, resp.Header.Get("Location"))
		})
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	e := newEnv(t)
	resp := page(t, e.client(), "/no-such-page")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGateRenewsExpiringAccess(t *testing.T) {
	e := newEnv(t)
	c := e.registered(t)
	before := c.Cookie(authsdk.AccessCookieName)

	e.clock.Advance(11 * time.Minute)

	resp := page(t, c, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	renewed := setCookie(resp, authsdk.AccessCookieName)
	require.NotNil(t, renewed)
	require.NotEqual(t, before, renewed.Value)
	require.Equal(t, renewed.Value, c.Cookie(authsdk.AccessCookieName))
}

func TestGateSoftFailsOnExpiredAccess(t *testing.T) {
	e := newEnv(t)
	c := e.registered(t)
	e.clock.Advance(time.Hour)

	resp := page(t, c, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, setCookie(resp, authsdk.AccessCookieName))

	// The API does not soft-fail
	_, err := c.Session(context.Background())
	require.ErrorIs(t, err, authsdk.ErrInvalidToken)
}

func TestGateClearsForgedRefresh(t *testing.T) {
	e := newEnv(t)
	c := e.client()
	c.SetCookie(authsdk.RefreshCookieName, "forged")

	resp := page(t, c, "/dashboard")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	cleared := setCookie(resp, authsdk.RefreshCookieName)
	require.NotNil(t, cleared)
	require.Negative(t, cleared.MaxAge)
	require.Empty(t, c.Cookie(authsdk.RefreshCookieName))
}

func TestRefreshEndpoint(t *testing.T) {
	ctx := context.Background()

	t.Run("renews and picks up role change", func(t *testing.T) {
		e := newEnv(t)
		c := e.registered(t)
		u, err := c.Session(ctx)
		require.NoError(t, err)

		require.NoError(t, e.store.Users().UpdateRole(ctx, u.ID, domain.RoleAdmin))
		e.clock.Advance(time.Hour)

		resp, err := c.Refresh(ctx)
		require.NoError(t, err)
		require.Equal(t, "ADMIN", resp.User.Role)

		u, err = c.Session(ctx)
		require.NoError(t, err)
		require.Equal(t, "ADMIN", u.Role)
	})

	t.Run("no refresh cookie", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.client().Refresh(ctx)
		require.ErrorIs(t, err, authsdk.ErrUnauthorized)
	})

	t.Run("expired refresh token clears cookies", func(t *testing.T) {
		e := newEnv(t)
		c := e.registered(t)
		e.clock.Advance(8 * 24 * time.Hour)

		_, err := c.Refresh(ctx)
		require.ErrorIs(t, err, authsdk.ErrSessionExpired)
		require.Empty(t, c.Cookie(authsdk.RefreshCookieName))
		require.Empty(t, c.Cookie(authsdk.AccessCookieName))
	})

	t.Run("deleted user clears cookies", func(t *testing.T) {
		e := newEnv(t)
		c := e.registered(t)
		u, err := c.Session(ctx)
		require.NoError(t, err)
		require.NoError(t, e.store.Users().DeleteUser(ctx, u.ID))

		_, err = c.Refresh(ctx)
		require.ErrorIs(t, err, authsdk.ErrUserNotFound)
		require.Empty(t, c.Cookie(authsdk.RefreshCookieName))
	})

	t.Run("directory down", func(t *testing.T) {
		e := newEnv(t)
		c := e.registered(t)
		require.NoError(t, e.store.Close())

		_, err := c.Refresh(ctx)
		require.ErrorIs(t, err, authsdk.ErrUnavailable)
		require.NotEmpty(t, c.Cookie(authsdk.RefreshCookieName))
	})
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	c := e.registered(t)
	require.NoError(t, c.Logout(ctx))
	require.Empty(t, c.Cookie(authsdk.AccessCookieName))
	require.Empty(t, c.Cookie(authsdk.RefreshCookieName))

	resp := page(t, c, "/dashboard")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	// No session at all is still a successful logout
	require.NoError(t, e.client().Logout(ctx))
}

func TestLogoutIsNeverRefused(t *testing.T) {
	e := newEnv(t)

	for i := range 3 * httpx.ModerateLimit.Burst {
		resp, err := e.srv.Client().Post(e.srv.URL+"/api/auth/logout", "application/json", nil)
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode, "logout %d", i+1)
		for _, name := range []string{authsdk.AccessCookieName, authsdk.RefreshCookieName} {
			ck := setCookie(resp, name)
			require.NotNil(t, ck, "logout %d: %s not cleared", i+1, name)
			require.Negative(t, ck.MaxAge, name)
		}
	}
}

func TestLoginLimitedPerAddressAcrossEmails(t *testing.T) {
	e := newEnv(t)

	limited := false
	for i := range httpx.ModerateLimit.Burst + 5 {
		body := `{"email":"user` + strconv.Itoa(i) + `@examania.com","password":"secreto1"}`
		resp, err := e.srv.Client().Post(e.srv.URL+"/api/auth/login", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "attempt %d", i+1)
	}
	require.True(t, limited, "one address spraying emails was never limited")
}

func TestBootstrapEndpoint(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.client()

	req := authsdk.BootstrapRequest{
		AdminEmail: "admin@examania.com", AdminName: "Administrador", AdminPassword: "change-me-now",
	}

	_, err := c.Bootstrap(ctx, "wrong", req)
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	out, err := c.Bootstrap(ctx, "bootstrap-token", req)
	require.NoError(t, err)
	require.NotEmpty(t, out.AdminID)

	_, err = c.Bootstrap(ctx, "bootstrap-token", req)
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)

	login, err := c.Login(ctx, "admin@examania.com", "change-me-now")
	require.NoError(t, err)
	require.Equal(t, "ADMIN", login.User.Role)
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.client()

	live, err := c.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := c.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Signer)

	page(t, c, "/dashboard")

	resp, err := http.Get(e.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `examania_session_gate_decisions_total{outcome="redirect",state="unauthenticated"} 1`)

	require.NoError(t, e.store.Close())
	_, err = c.GetReadiness(ctx)
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestSwaggerIsServed(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Get(e.srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "/api/auth/refresh")
}
