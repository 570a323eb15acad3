// Package monitoring provides Prometheus metrics and OpenTelemetry tracing.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	TokenIssuance     *prometheus.CounterVec
	TokenVerification *prometheus.CounterVec
	JWKSFetches       *prometheus.CounterVec
	Logins            *prometheus.CounterVec
	RefreshRotations  *prometheus.CounterVec
	RequestLatency    *prometheus.HistogramVec
}

// NewMetrics creates and registers the Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		TokenIssuance: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountd_token_issuance_total",
				Help: "Total number of access tokens issued.",
			},
			[]string{"result"},
		),
		TokenVerification: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountd_token_verifications_total",
				Help: "Total number of token verifications.",
			},
			[]string{"result"},
		),
		JWKSFetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountd_jwks_fetches_total",
				Help: "Total number of JWKS endpoint fetches.",
			},
			[]string{"result"},
		),
		Logins: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountd_logins_total",
				Help: "Total number of login attempts.",
			},
			[]string{"provider", "result"},
		),
		RefreshRotations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountd_refresh_rotations_total",
				Help: "Total number of refresh grant rotations.",
			},
			[]string{"result"},
		),
		RequestLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accountd_request_latency_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// RecordTokenIssuance records one issuance outcome.
func (m *Metrics) RecordTokenIssuance(result string) {
	m.TokenIssuance.WithLabelValues(result).Inc()
}

// RecordTokenVerification records one verification outcome.
func (m *Metrics) RecordTokenVerification(result string) {
	m.TokenVerification.WithLabelValues(result).Inc()
}

// RecordJWKSFetch records one remote key-set fetch outcome.
func (m *Metrics) RecordJWKSFetch(result string) {
	m.JWKSFetches.WithLabelValues(result).Inc()
}

// RecordLogin records one login attempt by provider and outcome.
func (m *Metrics) RecordLogin(provider, result string) {
	m.Logins.WithLabelValues(provider, result).Inc()
}

// RecordRefreshRotation records one refresh rotation outcome.
func (m *Metrics) RecordRefreshRotation(result string) {
	m.RefreshRotations.WithLabelValues(result).Inc()
}

// LatencyTimer measures one request's duration.
type LatencyTimer struct {
	metrics *Metrics
	method  string
	route   string
	start   time.Time
}

func NewLatencyTimer(m *Metrics, method, route string) *LatencyTimer {
	return &LatencyTimer{metrics: m, method: method, route: route, start: time.Now()}
}

// Observe records the elapsed time since the timer was created.
func (t *LatencyTimer) Observe() {
	t.metrics.RequestLatency.WithLabelValues(t.method, t.route).Observe(time.Since(t.start).Seconds())
}
