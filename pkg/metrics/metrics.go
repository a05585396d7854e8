package metrics

import (
	"strconv"
	"time"
)

// RecordOp records an engine operation with its duration
func (r *Registry) RecordOp(operation, status string, duration time.Duration) {
	r.OpsTotal.WithLabelValues(operation, status).Inc()
	r.OpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRead records a read outcome: "hit", "miss" or "tombstone"
func (r *Registry) RecordRead(outcome string) {
	r.ReadsTotal.WithLabelValues(outcome).Inc()
}

// RecordFlush records one memtable flush
func (r *Registry) RecordFlush() {
	r.FlushesTotal.Inc()
}

// SetMemtable updates the memtable gauges
func (r *Registry) SetMemtable(records int, bytes int64, height int) {
	r.MemtableRecords.Set(float64(records))
	r.MemtableBytes.Set(float64(bytes))
	r.MemtableHeight.Set(float64(height))
}

// SetLevels replaces the per-level gauges with the given counts and bytes
func (r *Registry) SetLevels(tables map[int]int, bytes map[int]int64) {
	r.SSTablesPerLevel.Reset()
	r.LevelBytes.Reset()
	for level, n := range tables {
		r.SSTablesPerLevel.WithLabelValues(strconv.Itoa(level)).Set(float64(n))
	}
	for level, b := range bytes {
		r.LevelBytes.WithLabelValues(strconv.Itoa(level)).Set(float64(b))
	}
}

// RecordCompaction records one completed compaction
func (r *Registry) RecordCompaction(duration time.Duration, duplicates, tombstones int, writeAmp float64) {
	r.CompactionsTotal.Inc()
	r.CompactionDuration.Observe(duration.Seconds())
	r.DuplicatesRemovedTotal.Add(float64(duplicates))
	r.TombstonesDroppedTotal.Add(float64(tombstones))
	r.WriteAmplification.Set(writeAmp)
}

// RecordBloomCheck records one bloom consultation and whether it answered
// definitely-absent
func (r *Registry) RecordBloomCheck(saved bool) {
	r.BloomChecksTotal.Inc()
	if saved {
		r.BloomNegativesTotal.Inc()
	}
}

// RecordCacheDelta advances the cache counters by the given deltas and
// updates the resident-block gauge
func (r *Registry) RecordCacheDelta(hits, misses int64, blocks int) {
	if hits > 0 {
		r.CacheHitsTotal.Add(float64(hits))
	}
	if misses > 0 {
		r.CacheMissesTotal.Add(float64(misses))
	}
	r.CacheBlocks.Set(float64(blocks))
}
