package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the storage engine
type Registry struct {
	// Engine operations
	OpsTotal     *prometheus.CounterVec
	OpDuration   *prometheus.HistogramVec
	ReadsTotal   *prometheus.CounterVec // hit / miss / tombstone
	FlushesTotal prometheus.Counter

	// Memtable
	MemtableRecords prometheus.Gauge
	MemtableBytes   prometheus.Gauge
	MemtableHeight  prometheus.Gauge

	// Levels
	SSTablesPerLevel *prometheus.GaugeVec
	LevelBytes       *prometheus.GaugeVec

	// Compaction
	CompactionsTotal       prometheus.Counter
	CompactionDuration     prometheus.Histogram
	DuplicatesRemovedTotal prometheus.Counter
	TombstonesDroppedTotal prometheus.Counter
	WriteAmplification     prometheus.Gauge

	// Bloom filter effectiveness
	BloomChecksTotal    prometheus.Counter
	BloomNegativesTotal prometheus.Counter

	// Block cache
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	CacheBlocks      prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initEngineMetrics()
	r.initCompactionMetrics()
	r.initCacheMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
