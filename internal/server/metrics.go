package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the HTTP API.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	analysesTotal   *prometheus.CounterVec
	signalsTotal    *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pairsight",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pairsight",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		analysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pairsight",
			Name:      "analyses_total",
			Help:      "Pair analyses by symbol and outcome.",
		}, []string{"symbol", "outcome"}),
		signalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pairsight",
			Name:      "signals_total",
			Help:      "Generated signals by direction.",
		}, []string{"direction"}),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(endpoint, code string, seconds float64) {
	m.requestsTotal.WithLabelValues(endpoint, code).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// ObserveAnalysis records one analysis attempt.
func (m *Metrics) ObserveAnalysis(symbol string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.analysesTotal.WithLabelValues(symbol, outcome).Inc()
}

// ObserveSignal records a generated signal direction.
func (m *Metrics) ObserveSignal(direction string) {
	m.signalsTotal.WithLabelValues(direction).Inc()
}
