// Package metrics holds the Prometheus collectors for the flow-control admin API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flowkeeper"

// Result labels for RequestsTotal.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// AdminMetrics holds Prometheus metrics for the admin operations.
type AdminMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	groupsChanged   *prometheus.CounterVec
	swallowedTotal  *prometheus.CounterVec
	storedRules     prometheus.Gauge
	digestRuns      *prometheus.CounterVec
}

// New creates AdminMetrics and registers them with reg.
// A nil registerer yields nil metrics; every method is a no-op on nil.
func New(reg prometheus.Registerer) *AdminMetrics {
	if reg == nil {
		return nil
	}

	m := &AdminMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "requests_total",
			Help:      "Admin requests by operation, scope and result",
		}, []string{"operation", "scope", "result"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling admin requests",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"operation"}),

		groupsChanged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "groups_changed_total",
			Help:      "Flow-control records written by operation",
		}, []string{"operation"}),

		swallowedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "swallowed_failures_total",
			Help:      "Per-group failures skipped during batch operations",
		}, []string{"operation"}),

		storedRules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records",
			Help:      "Flow-control records seen by the last digest run",
		}),

		digestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "digest",
			Name:      "runs_total",
			Help:      "Rule digest job runs by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.groupsChanged,
		m.swallowedTotal,
		m.storedRules,
		m.digestRuns,
	)

	return m
}

// ObserveRequest records one finished admin request.
func (m *AdminMetrics) ObserveRequest(operation, scope string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := ResultOK
	if !ok {
		result = ResultError
	}
	m.requestsTotal.WithLabelValues(operation, scope, result).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// GroupsChanged adds n written records for operation.
func (m *AdminMetrics) GroupsChanged(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.groupsChanged.WithLabelValues(operation).Add(float64(n))
}

// SwallowedFailure counts a per-group failure that did not fail the request.
func (m *AdminMetrics) SwallowedFailure(operation string) {
	if m == nil {
		return
	}
	m.swallowedTotal.WithLabelValues(operation).Inc()
}

// DigestRun records a digest job run and, on success, the record count.
func (m *AdminMetrics) DigestRun(records int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.digestRuns.WithLabelValues(ResultError).Inc()
		return
	}
	m.digestRuns.WithLabelValues(ResultOK).Inc()
	m.storedRules.Set(float64(records))
}
