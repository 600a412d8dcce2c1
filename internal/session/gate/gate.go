// Package gate decides, per request, whether a page may be served, where to
// redirect otherwise, and whether a renewed access token rides along.
package gate

import (
	"context"
	"time"

	"github.com/aussiebroadwan/examania/internal/session/domain"
	"github.com/aussiebroadwan/examania/internal/session/service"
	"github.com/aussiebroadwan/examania/pkg/slogx"
)

type Outcome int

const (
	Allow Outcome = iota
	Redirect
	AllowWithRefreshedCredential
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case AllowWithRefreshedCredential:
		return "allow_refreshed"
	default:
		return "unknown"
	}
}

// Request is the part of an HTTP request the gate looks at. Empty tokens mean
// the cookie was absent.
type Request struct {
	Path         string
	AccessToken  string
	RefreshToken string
}

// Decision is the gate's verdict. AccessToken is set when a renewal minted a
// new access token; it must be sent back even on a Redirect. ClearCredentials
// asks the caller to expire both cookies.
type Decision struct {
	Outcome          Outcome
	Target           string
	Class            Class
	State            domain.SessionState
	Identity         domain.Identity
	AccessToken      string
	ClearCredentials bool
}

type Verifier interface {
	CheckAccess(token string) service.Check
	CheckRefresh(token string) service.Check
	IsExpiringSoon(token string, threshold time.Duration) bool
}

type Renewer interface {
	Renew(ctx context.Context, refreshToken string) (service.Renewal, error)
}

// Observer is told about every decision.
type Observer interface {
	ObserveGate(outcome Outcome, state domain.SessionState)
}

type Gate struct {
	Routes    Routes
	Verifier  Verifier
	Renewer   Renewer
	Threshold time.Duration
	Observer  Observer
}

func New(routes Routes, v Verifier, r Renewer, threshold time.Duration) *Gate {
	if threshold <= 0 {
		threshold = service.DefaultRenewalThreshold
	}
	return &Gate{Routes: routes, Verifier: v, Renewer: r, Threshold: threshold}
}

// Evaluate runs the decision rules in priority order. It never fails: every
// problem with the presented tokens ends up as an unauthenticated state.
func (g *Gate) Evaluate(ctx context.Context, req Request) Decision {
	d := g.evaluate(ctx, req)
	if g.Observer != nil {
		g.Observer.ObserveGate(d.Outcome, d.State)
	}
	return d
}

func (g *Gate) evaluate(ctx context.Context, req Request) Decision {
	d := Decision{Class: g.Routes.Classify(req.Path)}

	if req.AccessToken == "" && req.RefreshToken == "" {
		d.State = domain.StateUnauthenticated
	} else {
		g.authenticate(ctx, req, &d)
	}

	return g.route(d)
}

// authenticate fills in state, identity and any renewed token.
func (g *Gate) authenticate(ctx context.Context, req Request, d *Decision) {
	log := slogx.FromContext(ctx)

	if req.AccessToken != "" {
		access := g.Verifier.CheckAccess(req.AccessToken)
		if access.Valid {
			d.Identity = service.IdentityFromClaims(access.Claims)
			d.State = domain.StateFresh

			if !g.Verifier.IsExpiringSoon(req.AccessToken, g.Threshold) {
				return
			}
			d.State = domain.StateExpiringSoon
			if req.RefreshToken == "" || g.Renewer == nil {
				return
			}

			// Expiring soon is advisory: on failure the old token carries this request
			renewed, err := g.Renewer.Renew(ctx, req.RefreshToken)
			if err != nil {
				log.Info("proactive renewal failed", "user_id", d.Identity.ID, "err", err)
				return
			}
			d.Identity = renewed.Identity
			d.AccessToken = renewed.AccessToken
			return
		}
		log.Debug("access token rejected", "err", access.Err)
	}

	if req.RefreshToken == "" {
		d.State = domain.StateInvalid
		return
	}

	refresh := g.Verifier.CheckRefresh(req.RefreshToken)
	if !refresh.Valid {
		log.Debug("refresh token rejected", "err", refresh.Err)
		d.State = domain.StateInvalid
		d.ClearCredentials = true
		return
	}

	// Identity from a refresh token carries id and email only
	d.State = domain.StateRefreshOnly
	d.Identity = service.IdentityFromClaims(refresh.Claims)
}

func (g *Gate) route(d Decision) Decision {
	authed := d.State.Authenticated()
	if !authed {
		d.Identity = domain.Identity{}
	}

	switch {
	case d.Class == ClassRoot && authed:
		d.Outcome, d.Target = Redirect, g.Routes.Home
	case d.Class == ClassRoot:
		d.Outcome, d.Target = Redirect, g.Routes.Login
	case d.Class == ClassPublic && authed:
		d.Outcome, d.Target = Redirect, g.Routes.Home
	case d.Class == ClassProtected && !authed:
		d.Outcome, d.Target = Redirect, g.Routes.Login
	case d.AccessToken != "":
		d.Outcome = AllowWithRefreshedCredential
	default:
		d.Outcome = Allow
	}

	return d
}
