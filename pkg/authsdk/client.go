package authsdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Cookie names used by the session service.
const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// SDKClient talks to the session service. The session lives in a cookie jar,
// exactly as it would in a browser, so one client is one logged-in user.
//
// Redirects are never followed; gated pages report their 307 to the caller.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client with an empty cookie jar.
func NewSDKClient(baseURL string) *SDKClient {
	jar, _ := cookiejar.New(nil) // only fails with a non-nil options value

	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Login authenticates and stores the session cookies.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*SessionResponse, error) {
	var out SessionResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login",
		LoginRequest{Email: email, Password: password}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and logs it in.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges the refresh cookie for a new access cookie.
func (c *SDKClient) Refresh(ctx context.Context) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout clears both cookies. The server answers 200 even with no session.
func (c *SDKClient) Logout(ctx context.Context) error {
	var out SessionResponse
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, &out, http.StatusOK)
}

// Session returns the identity behind the current access cookie.
func (c *SDKClient) Session(ctx context.Context) (*User, error) {
	var out SessionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/session", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, errors.New("session response without user")
	}
	return out.User, nil
}

// Page fetches a gated page without following redirects. The caller owns
// the response body.
func (c *SDKClient) Page(ctx context.Context, path string) (*http.Response, error) {
	return c.doRequest(ctx, http.MethodGet, path, nil, nil)
}

// Cookie returns the named session cookie value held by the jar.
func (c *SDKClient) Cookie(name string) string {
	u, err := url.Parse(c.BaseURL)
	if err != nil || c.HTTPClient.Jar == nil {
		return ""
	}
	for _, ck := range c.HTTPClient.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// SetCookie places a cookie in the jar, for replaying tokens in tests.
func (c *SDKClient) SetCookie(name, value string) {
	u, err := url.Parse(c.BaseURL)
	if err != nil || c.HTTPClient.Jar == nil {
		return
	}
	c.HTTPClient.Jar.SetCookies(u, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}
