package observability

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	nativecommon "passmint/native/common"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

type transitionMetrics struct {
	total    *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	commits  prometheus.Counter
	height   prometheus.Gauge
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	transitionMetricsOnce sync.Once
	transitionRegistry    *transitionMetrics
)

// ModuleMetrics returns the lazily-initialised registry used to record RPC
// module activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "passmint",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total RPC requests segmented by module, method and outcome.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "passmint",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total RPC errors segmented by module, method and status code.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "passmint",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "passmint",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of requests rejected by rate limiting.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a module request. status is the HTTP status
// written to the client.
func (m *moduleMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
		m.errors.WithLabelValues(module, method, strconv.Itoa(status)).Inc()
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for module.
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// Transitions returns the registry tracking state transitions executed by
// the node.
func Transitions() *transitionMetrics {
	transitionMetricsOnce.Do(func() {
		transitionRegistry = &transitionMetrics{
			total: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "passmint",
				Subsystem: "node",
				Name:      "transitions_total",
				Help:      "Total transitions segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "passmint",
				Subsystem: "node",
				Name:      "transition_errors_total",
				Help:      "Failed transitions segmented by operation and error name.",
			}, []string{"op", "code"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "passmint",
				Subsystem: "node",
				Name:      "transition_duration_seconds",
				Help:      "Latency distribution for state transitions.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			commits: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "passmint",
				Subsystem: "node",
				Name:      "commits_total",
				Help:      "Count of state commits persisted to disk.",
			}),
			height: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "passmint",
				Subsystem: "node",
				Name:      "height",
				Help:      "Height of the last committed state root.",
			}),
		}
		prometheus.MustRegister(
			transitionRegistry.total,
			transitionRegistry.failures,
			transitionRegistry.duration,
			transitionRegistry.commits,
			transitionRegistry.height,
		)
	})
	return transitionRegistry
}

// Observe records one transition. Failures are labelled with the stable error
// name when the error carries one.
func (m *transitionMetrics) Observe(op string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		m.failures.WithLabelValues(op, ErrorName(err)).Inc()
	}
	m.total.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordCommit updates the committed height.
func (m *transitionMetrics) RecordCommit(height uint64) {
	if m == nil {
		return
	}
	m.commits.Inc()
	m.height.Set(float64(height))
}

// ErrorName returns the stable name of a module error or "internal".
func ErrorName(err error) string {
	var modErr *nativecommon.Error
	if errors.As(err, &modErr) {
		return modErr.Name
	}
	return "internal"
}
