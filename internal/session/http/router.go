package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/examania/internal/session/gate"
	"github.com/aussiebroadwan/examania/internal/session/service"
	"github.com/aussiebroadwan/examania/internal/session/store"
	"github.com/aussiebroadwan/examania/pkg/authsdk"
	"github.com/aussiebroadwan/examania/pkg/httpx"
	"github.com/aussiebroadwan/examania/pkg/jwtx"
	"github.com/aussiebroadwan/examania/pkg/slogx"

	_ "github.com/aussiebroadwan/examania/api/session" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Cookies          Cookies
	Gate             *gate.Gate
	AccountService   *service.AccountService
	Renewer          *service.RenewalCoordinator
	BootstrapService *service.BootstrapService

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func NewRouter(
	codec *jwtx.Codec,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
		httpx.SecurityHeaders(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPages()
	r.registerSystem()
	r.registerBootstrap()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Examania Session Service API
//	@version		0.1.0
//	@description	Stateless cookie sessions for Examania. Login hands out an HS256 access token and a refresh token as HttpOnly cookies; pages are gated on those cookies alone.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/examania
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	CookieAuth
//	@in							cookie
//	@name						accessToken
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Accounts: r.AccountService,
		Renewer:  r.Renewer,
		Cookies:  r.Cookies,
	}

	// Login is limited per IP across all emails, then per IP + email
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	// Logout only clears cookies and must never be refused
	r.Mux.Handle("POST /api/auth/logout", http.HandlerFunc(h.HandleLogout))

	r.Mux.Handle("GET /api/auth/session",
		httpx.Chain(http.HandlerFunc(h.HandleSession),
			httpx.AuthnMiddleware(r.codec, authsdk.AccessCookieName),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerPages() {
	page := httpx.Chain(PageHandler(),
		httpx.RateLimitByIP(httpx.PublicLimit),
		GateMiddleware(r.Gate, r.Cookies),
	)

	seen := map[string]bool{}
	handle := func(pattern string) {
		if seen[pattern] {
			return
		}
		seen[pattern] = true
		r.Mux.Handle(pattern, page)
	}

	handle("GET /{$}")
	for _, p := range r.Gate.Routes.Public {
		handle("GET " + p)
	}
	for _, p := range r.Gate.Routes.Protected {
		handle("GET " + p)
		handle("GET " + p + "/")
	}
	handle("GET " + r.Gate.Routes.Login)
	handle("GET " + r.Gate.Routes.Home)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.codec),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics)
	}
}

func (r *Router) registerBootstrap() {
	h := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}
