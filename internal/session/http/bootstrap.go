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

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP creates the first administrator.
//
//	@Summary		Bootstrap the first admin
//	@Description	Creates an ADMIN account while the user directory is empty. Only available when BOOTSTRAP_TOKEN is configured.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string							true	"Bootstrap token"
//	@Param			request				body		authsdk.BootstrapRequest		true	"Admin account"
//	@Success		201					{object}	authsdk.BootstrapResponse
//	@Failure		400					{object}	authsdk.ValidationErrorResponse
//	@Failure		401					{object}	authsdk.ErrorResponse	"missing or wrong bootstrap token"
//	@Failure		404					{object}	authsdk.ErrorResponse	"bootstrap not enabled"
//	@Failure		409					{object}	authsdk.ErrorResponse	"already bootstrapped"
//	@Failure		500					{object}	authsdk.ErrorResponse
//	@Router			/v1/bootstrap [post]
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())

	if !h.BootstrapService.Enabled() {
		authsdk.NewAPIError(http.StatusNotFound, "not_found", "bootstrap endpoint is not enabled").WriteError(w)
		return
	}

	token := r.Header.Get(authsdk.BootstrapTokenHeader)
	if token == "" {
		authsdk.NewAPIError(http.StatusUnauthorized, authsdk.ErrorCodeUnauthorized,
			"bootstrap token is required in the "+authsdk.BootstrapTokenHeader+" header").WriteError(w)
		return
	}

	var req authsdk.BootstrapRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if errs := req.Validate(); errs != nil {
		(&authsdk.ValidationError{Fields: errs}).WriteError(w)
		return
	}

	adminID, err := h.BootstrapService.Bootstrap(r.Context(), token, domain.BootstrapData{
		AdminEmail:    req.AdminEmail,
		AdminName:     req.AdminName,
		AdminPassword: req.AdminPassword,
	})
	switch {
	case errors.Is(err, service.ErrBootstrapUnauthorized):
		authsdk.NewAPIError(http.StatusUnauthorized, authsdk.ErrorCodeUnauthorized, "invalid bootstrap token").WriteError(w)
		return
	case errors.Is(err, service.ErrBootstrapAlready):
		authsdk.NewAPIError(http.StatusConflict, "already_bootstrapped", "the system has already been bootstrapped").WriteError(w)
		return
	case err != nil:
		l.Error("bootstrap failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.BootstrapResponse{AdminID: adminID})
}
