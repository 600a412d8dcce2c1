package http

import (
	"context"

	"github.com/aussiebroadwan/examania/internal/session/domain"
)

type ctxKey struct{}

type gateResult struct {
	identity domain.Identity
	state    domain.SessionState
}

func withGateResult(ctx context.Context, id domain.Identity, state domain.SessionState) context.Context {
	return context.WithValue(ctx, ctxKey{}, gateResult{identity: id, state: state})
}

// IdentityFromContext returns the identity the gate let through, if any.
// A refresh-only session carries only id and email.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	res, ok := ctx.Value(ctxKey{}).(gateResult)
	if !ok || res.identity.IsZero() {
		return domain.Identity{}, false
	}
	return res.identity, true
}

// StateFromContext returns the session state computed by the gate.
func StateFromContext(ctx context.Context) domain.SessionState {
	res, _ := ctx.Value(ctxKey{}).(gateResult)
	return res.state
}
