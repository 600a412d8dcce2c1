package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/examania/internal/session/domain"
	"github.com/aussiebroadwan/examania/internal/session/service"
	"github.com/aussiebroadwan/examania/pkg/authsdk"
	"github.com/aussiebroadwan/examania/pkg/httpx"
	"github.com/aussiebroadwan/examania/pkg/slogx"
)

// AuthHandler serves the JSON auth API under /api/auth.
type AuthHandler struct {
	Accounts *service.AccountService
	Renewer  *service.RenewalCoordinator
	Cookies  Cookies
}

// HandleLogin godoc
//
//	@Summary		Log in
//	@Description	Checks email and password and sets the accessToken and refreshToken cookies. Unknown email and wrong password give the same answer.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest			true	"Credentials"
//	@Success		200		{object}	authsdk.SessionResponse
//	@Failure		400		{object}	authsdk.ValidationErrorResponse
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse
//	@Failure		503		{object}	authsdk.ErrorResponse
//	@Router			/api/auth/login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if errs := req.Validate(); errs != nil {
		(&authsdk.ValidationError{Fields: errs}).WriteError(w)
		return
	}

	sess, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAccountError(w, r, err)
		return
	}

	h.Cookies.SetPair(w, sess.Credentials)
	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{
		Success: true,
		Message: "login successful",
		User:    userFrom(sess.Identity),
	})
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Creates an account and logs it in. The email is trimmed and lower-cased before it is stored.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest			true	"New account"
//	@Success		201		{object}	authsdk.SessionResponse
//	@Failure		400		{object}	authsdk.ValidationErrorResponse
//	@Failure		409		{object}	authsdk.ErrorResponse	"email_taken"
//	@Failure		429		{object}	authsdk.ErrorResponse
//	@Failure		503		{object}	authsdk.ErrorResponse
//	@Router			/api/auth/register [post]
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if errs := req.Validate(); errs != nil {
		(&authsdk.ValidationError{Fields: errs}).WriteError(w)
		return
	}

	sess, err := h.Accounts.Register(r.Context(), domain.NewAccount{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeAccountError(w, r, err)
		return
	}

	h.Cookies.SetPair(w, sess.Credentials)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.SessionResponse{
		Success: true,
		Message: "account created",
		User:    userFrom(sess.Identity),
	})
}

// HandleRefresh godoc
//
//	@Summary		Renew the access token
//	@Description	Trades the refreshToken cookie for a new accessToken cookie. The identity is re-read from the user directory, so role changes apply here. The refresh token is not rotated.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"missing or expired refresh token, both cookies cleared"
//	@Failure		404	{object}	authsdk.ErrorResponse	"account deleted, both cookies cleared"
//	@Failure		503	{object}	authsdk.ErrorResponse	"user directory unavailable"
//	@Router			/api/auth/refresh [post]
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	_, refresh := tokensFrom(r)
	if refresh == "" {
		h.Cookies.Clear(w)
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	renewed, err := h.Renewer.Renew(r.Context(), refresh)
	switch {
	case errors.Is(err, service.ErrSessionExpired):
		h.Cookies.Clear(w)
		authsdk.ErrSessionExpired.WriteError(w)
		return
	case errors.Is(err, service.ErrUserNotFound):
		h.Cookies.Clear(w)
		authsdk.ErrUserNotFound.WriteError(w)
		return
	case errors.Is(err, service.ErrDirectoryUnavailable):
		authsdk.ErrUnavailable.WriteError(w)
		return
	case err != nil:
		slogx.FromContext(r.Context()).Error("renewal failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	h.Cookies.SetAccess(w, renewed.AccessToken)
	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{
		Success: true,
		Message: "token refreshed",
		User:    userFrom(renewed.Identity),
	})
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Description	Clears both session cookies. Always succeeds, with or without a session.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionResponse
//	@Router			/api/auth/logout [post]
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Cookies.Clear(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{
		Success: true,
		Message: "logged out",
	})
}

// HandleSession godoc
//
//	@Summary		Current session
//	@Description	Returns the identity carried by a valid access token. Never renews; call /api/auth/refresh on 401.
//	@Tags			Auth
//	@Produce		json
//	@Security		CookieAuth
//	@Success		200	{object}	authsdk.SessionResponse
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Router			/api/auth/session [get]
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{
		Success: true,
		Message: "authenticated",
		User:    userFrom(service.IdentityFromClaims(claims)),
	})
}

func (h *AuthHandler) writeAccountError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		authsdk.ErrEmailTaken.WriteError(w)
	case errors.Is(err, service.ErrDirectoryUnavailable):
		slogx.FromContext(r.Context()).Error("user directory unavailable", "err", err)
		authsdk.ErrUnavailable.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("account operation failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

func userFrom(id domain.Identity) *authsdk.User {
	return &authsdk.User{
		ID:    id.ID,
		Email: id.Email,
		Name:  id.Name,
		Role:  id.Role.String(),
	}
}
