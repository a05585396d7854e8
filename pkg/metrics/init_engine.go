package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEngineMetrics() {
	r.OpsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kv_engine_operations_total",
			Help: "Total number of engine operations",
		},
		[]string{"operation", "status"},
	)

	r.OpDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kv_engine_operation_duration_seconds",
			Help:    "Engine operation duration in seconds",
			Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
		[]string{"operation"},
	)

	r.ReadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kv_engine_reads_total",
			Help: "Read outcomes by kind",
		},
		[]string{"outcome"},
	)

	r.FlushesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "kv_engine_flushes_total",
			Help: "Total number of memtable flushes",
		},
	)

	r.MemtableRecords = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "kv_memtable_records",
			Help: "Records currently buffered in the memtable",
		},
	)

	r.MemtableBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "kv_memtable_bytes",
			Help: "Approximate memtable size in bytes",
		},
	)

	r.MemtableHeight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "kv_memtable_skiplist_height",
			Help: "Current height of the memtable skip list",
		},
	)

	r.SSTablesPerLevel = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kv_sstables_per_level",
			Help: "Number of SSTables per level",
		},
		[]string{"level"},
	)

	r.LevelBytes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kv_level_bytes",
			Help: "Estimated bytes per level",
		},
		[]string{"level"},
	)

	r.BloomChecksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "kv_bloom_checks_total",
			Help: "SSTable lookups that consulted a bloom filter",
		},
	)

	r.BloomNegativesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "kv_bloom_negatives_total",
			Help: "Lookups answered definitely-absent by a bloom filter",
		},
	)
}

func (r *Registry) initCompactionMetrics() {
	r.CompactionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "kv_compactions_total",
			Help: "Total number of completed compactions",
		},
	)

	r.CompactionDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kv_compaction_duration_seconds",
			Help:    "Compaction duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		},
	)

	r.DuplicatesRemovedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "kv_compaction_duplicates_removed_total",
			Help: "Superseded records discarded by compaction",
		},
	)

	r.TombstonesDroppedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "kv_compaction_tombstones_dropped_total",
			Help: "Tombstones dropped at the bottom level",
		},
	)

	r.WriteAmplification = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "kv_write_amplification",
			Help: "Cumulative compaction output bytes over input bytes",
		},
	)
}

func (r *Registry) initCacheMetrics() {
	r.CacheHitsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "kv_block_cache_hits_total",
			Help: "Block cache hits",
		},
	)

	r.CacheMissesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "kv_block_cache_misses_total",
			Help: "Block cache misses",
		},
	)

	r.CacheBlocks = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "kv_block_cache_blocks",
			Help: "Blocks currently cached",
		},
	)
}
