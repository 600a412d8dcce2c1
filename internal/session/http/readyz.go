package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/examania/pkg/authsdk"
	"github.com/aussiebroadwan/examania/pkg/httpx"
	"github.com/aussiebroadwan/examania/pkg/jwtx"
)

// Pinger is satisfied by store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SignerProbe is the part of the token codec readiness exercises.
type SignerProbe interface {
	Sign(kind jwtx.Kind, claims jwtx.Claims, ttl time.Duration) (string, error)
	Verify(kind jwtx.Kind, token string) (jwtx.Claims, error)
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Pings the database and signs then verifies a throwaway token of each kind
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"one of the checks failed"
//	@Router			/readyz [get]
func ReadyzHandler(startTime time.Time, version string, db Pinger, signer SignerProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{Database: "ok", Signer: "ok"}
		status, code := "ok", http.StatusOK

		if err := db.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}

		if err := probeSigner(signer); err != nil {
			checks.Signer = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}

func probeSigner(s SignerProbe) error {
	probe := jwtx.NewClaims("readyz", "readyz@localhost", "", "")
	for _, kind := range []jwtx.Kind{jwtx.KindAccess, jwtx.KindRefresh} {
		tok, err := s.Sign(kind, probe, time.Minute)
		if err != nil {
			return err
		}
		if _, err := s.Verify(kind, tok); err != nil {
			return err
		}
	}
	return nil
}
