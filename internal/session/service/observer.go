package service

import "time"

// Observer receives operation outcomes, typically to feed metrics. It must be
// safe for concurrent use.
type Observer interface {
	ObserveRenewal(outcome string, elapsed time.Duration)
	ObserveLogin(outcome string)
	ObserveRegistration(outcome string)
}

// Outcome labels shared with the metrics package.
const (
	OutcomeOK           = "ok"
	OutcomeExpired      = "expired"
	OutcomeUnknownUser  = "unknown_user"
	OutcomeUnavailable  = "unavailable"
	OutcomeInvalidCreds = "invalid_credentials"
	OutcomeConflict     = "conflict"
	OutcomeError        = "error"
)

type nopObserver struct{}

func (nopObserver) ObserveRenewal(string, time.Duration) {}
func (nopObserver) ObserveLogin(string)                  {}
func (nopObserver) ObserveRegistration(string)           {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
