// Package httpapi provides the JSON HTTP adapter for the enforcement gate.
package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for rulegate.
// Pass to components that need to record metrics.
type Metrics struct {
	InvocationsTotal *prometheus.CounterVec
	ViolationsTotal  *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		InvocationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rulegate",
				Name:      "invocations_total",
				Help:      "Total capability invocations by decision",
			},
			[]string{"capability", "decision"}, // decision=allow/deny
		),
		ViolationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rulegate",
				Name:      "violations_total",
				Help:      "Total rule violations by rule",
			},
			[]string{"rule_id"},
		),
		ErrorsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rulegate",
				Name:      "errors_total",
				Help:      "Total invocation errors (unknown capability, bad parameters)",
			},
			[]string{"kind"}, // kind=unknown_capability/invalid_params/internal
		),
		ActiveSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "rulegate",
				Name:      "active_sessions",
				Help:      "Number of active sessions",
			},
		),
	}
}
