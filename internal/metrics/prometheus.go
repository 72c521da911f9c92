package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the routing cache
type Metrics struct {
	// Reload cycle metrics
	ReloadsTotal   prometheus.CounterVec
	ReloadDuration prometheus.Histogram
	TriggersTotal  prometheus.CounterVec

	// Lookup metrics
	LookupsTotal prometheus.CounterVec

	// Snapshot metrics
	TablesCached     prometheus.Gauge
	PartitionsCached prometheus.Gauge

	// Row-level load anomalies
	RowsSkippedTotal prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(clusterName string) *Metrics {
	labels := prometheus.Labels{"cluster": clusterName}

	return &Metrics{
		ReloadsTotal: *promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "pairdb",
			Subsystem:   "routing",
			Name:        "reloads_total",
			Help:        "Total number of partition metadata reloads by status",
			ConstLabels: labels,
		}, []string{"status"}),
		ReloadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "pairdb",
			Subsystem:   "routing",
			Name:        "reload_duration_seconds",
			Help:        "Histogram of partition metadata reload durations",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		TriggersTotal: *promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "pairdb",
			Subsystem:   "routing",
			Name:        "triggers_total",
			Help:        "Total number of reload triggers by reason",
			ConstLabels: labels,
		}, []string{"reason"}),
		LookupsTotal: *promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "pairdb",
			Subsystem:   "routing",
			Name:        "lookups_total",
			Help:        "Total number of key lookups by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		TablesCached: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "pairdb",
			Subsystem:   "routing",
			Name:        "tables_cached",
			Help:        "Number of tables in the current routing snapshot",
			ConstLabels: labels,
		}),
		PartitionsCached: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "pairdb",
			Subsystem:   "routing",
			Name:        "partitions_cached",
			Help:        "Number of partition ranges in the current routing snapshot",
			ConstLabels: labels,
		}),
		RowsSkippedTotal: *promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "pairdb",
			Subsystem:   "routing",
			Name:        "rows_skipped_total",
			Help:        "Total number of catalog rows skipped during load by reason",
			ConstLabels: labels,
		}, []string{"reason"}),
	}
}

// RecordReload records a completed reload cycle
func (m *Metrics) RecordReload(status string, duration float64) {
	m.ReloadsTotal.WithLabelValues(status).Inc()
	m.ReloadDuration.Observe(duration)
}

// RecordTrigger records a reload trigger
func (m *Metrics) RecordTrigger(reason string) {
	m.TriggersTotal.WithLabelValues(reason).Inc()
}

// RecordLookup records a key lookup
func (m *Metrics) RecordLookup(outcome string) {
	m.LookupsTotal.WithLabelValues(outcome).Inc()
}

// UpdateSnapshotStats updates gauges describing the published snapshot
func (m *Metrics) UpdateSnapshotStats(tables, partitions int) {
	m.TablesCached.Set(float64(tables))
	m.PartitionsCached.Set(float64(partitions))
}

// RecordRowSkipped records a catalog row dropped during load
func (m *Metrics) RecordRowSkipped(reason string) {
	m.RowsSkippedTotal.WithLabelValues(reason).Inc()
}
