package http

import (
	"net/http"

	"github.com/aussiebroadwan/examania/internal/session/gate"
	"github.com/aussiebroadwan/examania/pkg/httpx"
	"github.com/aussiebroadwan/examania/pkg/slogx"
)

// GateMiddleware runs the route gate before a page handler. Redirects use
// 307 and carry any renewed access cookie; cookies are cleared when the gate
// found a refresh token that does not verify.
func GateMiddleware(g *gate.Gate, cookies Cookies) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			access, refresh := tokensFrom(r)

			d := g.Evaluate(ctx, gate.Request{
				Path:         r.URL.Path,
				AccessToken:  access,
				RefreshToken: refresh,
			})

			slogx.FromContext(ctx).Debug("gate decision",
				"path", r.URL.Path,
				"class", d.Class.String(),
				"outcome", d.Outcome.String(),
				"state", d.State.String(),
			)

			switch {
			case d.ClearCredentials:
				cookies.Clear(w)
			case d.AccessToken != "":
				cookies.SetAccess(w, d.AccessToken)
			}

			if d.Outcome == gate.Redirect {
				httpx.NoCache(w)
				http.Redirect(w, r, d.Target, http.StatusTemporaryRedirect)
				return
			}

			next.ServeHTTP(w, r.WithContext(withGateResult(ctx, d.Identity, d.State)))
		})
	}
}
