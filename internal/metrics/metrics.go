package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsEvaluatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "argus_requests_evaluated_total",
		Help: "Total number of requests inspected by the detection engine",
	})
	requestsBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "argus_requests_blocked_total",
		Help: "Total number of requests blocked by the detection engine",
	})
	threatsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "argus_threats_total",
		Help: "Detected threats by severity",
	}, []string{"severity"})
	alertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "argus_alerts_total",
		Help: "Escalation alerts emitted by level",
	}, []string{"level"})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(requestsEvaluatedTotal, requestsBlockedTotal, threatsTotal, alertsTotal)
}

// IncEvaluated increments the inspected requests counter.
func IncEvaluated() { requestsEvaluatedTotal.Inc() }

// IncBlocked increments the blocked requests counter.
func IncBlocked() { requestsBlockedTotal.Inc() }

// IncThreat increments the per-severity threat counter.
func IncThreat(severity string) { threatsTotal.WithLabelValues(severity).Inc() }

// IncAlert increments the per-level alert counter.
func IncAlert(level string) { alertsTotal.WithLabelValues(level).Inc() }
