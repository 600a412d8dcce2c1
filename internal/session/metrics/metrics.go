// Package metrics exposes session outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/examania/internal/session/domain"
	"github.com/aussiebroadwan/examania/internal/session/gate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "examania_session"

// Collector implements service.Observer and gate.Observer.
type Collector struct {
	gateDecisions   *prometheus.CounterVec
	renewals        *prometheus.CounterVec
	renewalDuration prometheus.Histogram
	logins          *prometheus.CounterVec
	registrations   *prometheus.CounterVec
}

// NewCollector creates the collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Route gate decisions by outcome and session state.",
		}, []string{"outcome", "state"}),
		renewals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renewals_total",
			Help:      "Access token renewals by outcome.",
		}, []string{"outcome"}),
		renewalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "renewal_duration_seconds",
			Help:      "Time spent renewing an access token, directory lookup included.",
			Buckets:   prometheus.DefBuckets,
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.gateDecisions,
		c.renewals,
		c.renewalDuration,
		c.logins,
		c.registrations,
	)

	return c
}

func (c *Collector) ObserveGate(outcome gate.Outcome, state domain.SessionState) {
	c.gateDecisions.WithLabelValues(outcome.String(), state.String()).Inc()
}

func (c *Collector) ObserveRenewal(outcome string, elapsed time.Duration) {
	c.renewals.WithLabelValues(outcome).Inc()
	c.renewalDuration.Observe(elapsed.Seconds())
}

func (c *Collector) ObserveLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

// Handler serves the gatherer's metrics for scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
