package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Index outcomes recorded by RecordIndexed.
const (
	IndexStored   = "stored"
	IndexReplayed = "replayed"
	IndexFailed   = "failed"
)

type eventMetrics struct {
	published *prometheus.CounterVec
	indexed   *prometheus.CounterVec
	sequence  prometheus.Gauge
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking the committed event stream and
// its index.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			published: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "passmint",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Events published by committed transitions, by type.",
			}, []string{"type"}),
			indexed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "passmint",
				Subsystem: "events",
				Name:      "indexed_total",
				Help:      "Index writes by event type and outcome.",
			}, []string{"type", "outcome"}),
			sequence: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "passmint",
				Subsystem: "events",
				Name:      "index_sequence",
				Help:      "Highest sequence number written to the event index.",
			}),
		}
		prometheus.MustRegister(eventRegistry.published, eventRegistry.indexed, eventRegistry.sequence)
	})
	return eventRegistry
}

func eventLabel(eventType string) string {
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

// RecordEvent counts one published event.
func (m *eventMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(eventLabel(eventType)).Inc()
}

// RecordIndexed counts one index write with the given outcome.
func (m *eventMetrics) RecordIndexed(eventType, outcome string) {
	if m == nil {
		return
	}
	m.indexed.WithLabelValues(eventLabel(eventType), outcome).Inc()
}

func (m *eventMetrics) SetIndexSequence(seq uint64) {
	if m == nil {
		return
	}
	m.sequence.Set(float64(seq))
}
