package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PassesMetrics tracks record storage activity inside the passes engine.
type PassesMetrics struct {
	recordsCreated   *prometheus.CounterVec
	recordsClosed    *prometheus.CounterVec
	reallocBytes     *prometheus.CounterVec
	receiptsRedeemed *prometheus.CounterVec
	activityEntries  prometheus.Counter
}

var (
	passesOnce     sync.Once
	passesRegistry *PassesMetrics
)

func Passes() *PassesMetrics {
	passesOnce.Do(func() {
		passesRegistry = &PassesMetrics{
			recordsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "passmint_records_created_total",
				Help: "Count of record accounts allocated by kind.",
			}, []string{"kind"}),
			recordsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "passmint_records_closed_total",
				Help: "Count of record accounts closed by kind.",
			}, []string{"kind"}),
			reallocBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "passmint_realloc_bytes_total",
				Help: "Bytes added to existing record accounts by kind.",
			}, []string{"kind"}),
			receiptsRedeemed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "passmint_receipts_redeemed_total",
				Help: "Count of payment receipts consumed by receipt kind.",
			}, []string{"kind"}),
			activityEntries: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "passmint_activity_entries_total",
				Help: "Count of entries appended to activity ledgers.",
			}),
		}
		prometheus.MustRegister(
			passesRegistry.recordsCreated,
			passesRegistry.recordsClosed,
			passesRegistry.reallocBytes,
			passesRegistry.receiptsRedeemed,
			passesRegistry.activityEntries,
		)
	})
	return passesRegistry
}

func (m *PassesMetrics) ObserveRecordCreated(kind string) {
	if m == nil {
		return
	}
	m.recordsCreated.WithLabelValues(label(kind)).Inc()
}

func (m *PassesMetrics) ObserveRecordClosed(kind string) {
	if m == nil {
		return
	}
	m.recordsClosed.WithLabelValues(label(kind)).Inc()
}

// ObserveRealloc records growth of a record account. Zero growth is ignored.
func (m *PassesMetrics) ObserveRealloc(kind string, added uint64) {
	if m == nil || added == 0 {
		return
	}
	m.reallocBytes.WithLabelValues(label(kind)).Add(float64(added))
}

func (m *PassesMetrics) ObserveReceiptRedeemed(kind string) {
	if m == nil {
		return
	}
	m.receiptsRedeemed.WithLabelValues(label(kind)).Inc()
}

func (m *PassesMetrics) ObserveActivityEntry() {
	if m == nil {
		return
	}
	m.activityEntries.Inc()
}

func label(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
