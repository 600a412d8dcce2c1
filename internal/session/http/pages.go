package http

import (
	"net/http"

	"github.com/aussiebroadwan/examania/pkg/authsdk"
	"github.com/aussiebroadwan/examania/pkg/httpx"
)

// PageResponse stands in for a rendered page; the UI itself lives elsewhere
// and only needs to know who is looking.
type PageResponse struct {
	Page  string        `json:"page"`
	State string        `json:"state"`
	User  *authsdk.User `json:"user,omitempty"`
}

// PageHandler godoc
//
//	@Summary		Gated page
//	@Description	Every page passes the route gate first. Protected pages redirect to /login without a session, public pages redirect to /dashboard with one, and / always redirects.
//	@Tags			Pages
//	@Produce		json
//	@Success		200	{object}	PageResponse
//	@Header			200	{string}	Set-Cookie	"renewed accessToken when the old one was about to expire"
//	@Failure		307	{string}	string	"redirect to /login or /dashboard"
//	@Router			/dashboard [get]
func PageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := PageResponse{
			Page:  r.URL.Path,
			State: StateFromContext(r.Context()).String(),
		}
		if id, ok := IdentityFromContext(r.Context()); ok {
			resp.User = userFrom(id)
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}
