package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RegistrationsTotal    *prometheus.CounterVec
	RegistrationConflicts prometheus.Counter
	DeregistrationsTotal  *prometheus.CounterVec
	TxRetries             prometheus.Counter
	LoginsTotal           *prometheus.CounterVec
	SellerStatusChanges   prometheus.Counter
	RequestDuration       *prometheus.HistogramVec
}

// New creates all metrics against the given registerer. Passing a fresh
// registry in tests avoids duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propmarket_registrations_total",
			Help: "Total number of completed account registrations by role",
		}, []string{"role"}),
		RegistrationConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "propmarket_registration_conflicts_total",
			Help: "Total number of registrations rejected for duplicate email or username",
		}),
		DeregistrationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propmarket_deregistrations_total",
			Help: "Total number of completed account removals by role",
		}, []string{"role"}),
		TxRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "propmarket_tx_retries_total",
			Help: "Total number of registration transactions retried after a serialization failure",
		}),
		LoginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propmarket_logins_total",
			Help: "Total number of login attempts by outcome",
		}, []string{"outcome"}),
		SellerStatusChanges: factory.NewCounter(prometheus.CounterOpts{
			Name: "propmarket_seller_status_changes_total",
			Help: "Total number of seller approval status transitions",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "propmarket_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncrementRegistrations(role string) {
	m.RegistrationsTotal.WithLabelValues(role).Inc()
}

func (m *Metrics) IncrementRegistrationConflicts() {
	m.RegistrationConflicts.Inc()
}

func (m *Metrics) IncrementDeregistrations(role string) {
	m.DeregistrationsTotal.WithLabelValues(role).Inc()
}

func (m *Metrics) IncrementTxRetries() {
	m.TxRetries.Inc()
}

func (m *Metrics) IncrementLogins(outcome string) {
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementSellerStatusChanges() {
	m.SellerStatusChanges.Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
