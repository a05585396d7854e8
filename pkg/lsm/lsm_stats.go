package lsm

import (
	"time"
)

// MemtableStats describes the write buffer.
type MemtableStats struct {
	Records int
	Height  int
	Bytes   int64
}

// LevelStats describes one populated level.
type LevelStats struct {
	Level   int
	Tables  int
	Records int
	Bytes   int64
}

// StatsSnapshot is a point-in-time aggregate view over the engine.
type StatsSnapshot struct {
	EngineID string
	Uptime   time.Duration

	Puts    int64
	Gets    int64
	Deletes int64
	Hits    int64
	Misses  int64
	Flushes int64

	Memtable MemtableStats
	Levels   []LevelStats

	Compactions        int
	CompactionHistory  []CompactionRecord // Most recent entries, oldest first
	DuplicatesRemoved  int64
	TombstonesDropped  int64
	WriteAmplification float64 // Cumulative output bytes / input bytes

	BloomChecks     int64
	BloomSaved      int64
	BloomSavedRatio float64
	BloomFillRatio  float64 // Mean fill across live tables

	CacheHits    int64
	CacheMisses  int64
	CacheHitRate float64

	ObserverErrors int64
}

// historyTail is the number of compaction records included in a snapshot.
const historyTail = 8

// Stats assembles a snapshot of every counter and structural gauge.
func (e *Engine) Stats() StatsSnapshot {
	snap := StatsSnapshot{
		EngineID: e.id.String(),
		Uptime:   time.Since(e.createdAt),

		Puts:    e.counters.puts,
		Gets:    e.counters.gets,
		Deletes: e.counters.deletes,
		Hits:    e.counters.hits,
		Misses:  e.counters.misses,
		Flushes: e.counters.flushes,

		Memtable: MemtableStats{
			Records: e.mem.Len(),
			Height:  e.mem.Height(),
			Bytes:   e.mem.ApproxBytes(),
		},

		Compactions:        e.compactor.TotalCompactions(),
		DuplicatesRemoved:  e.compactor.DuplicatesRemoved(),
		TombstonesDropped:  e.compactor.TombstonesDropped(),
		WriteAmplification: e.compactor.WriteAmplification(),

		BloomChecks:    e.counters.bloomChecks,
		BloomSaved:     e.counters.bloomSaved,
		ObserverErrors: e.observerErrors,
	}

	history := e.compactor.History()
	if len(history) > historyTail {
		history = history[len(history)-historyTail:]
	}
	snap.CompactionHistory = append([]CompactionRecord(nil), history...)

	var fillSum float64
	tableCount := 0
	for _, level := range e.levels.LevelNumbers() {
		ls := LevelStats{Level: level}
		for _, sst := range e.levels.Level(level) {
			ls.Tables++
			ls.Records += sst.EntryCount()
			ls.Bytes += sst.SizeBytes()
			fillSum += sst.Bloom().FillRatio()
			tableCount++
		}
		snap.Levels = append(snap.Levels, ls)
	}
	if tableCount > 0 {
		snap.BloomFillRatio = fillSum / float64(tableCount)
	}
	if snap.BloomChecks > 0 {
		snap.BloomSavedRatio = float64(snap.BloomSaved) / float64(snap.BloomChecks)
	}

	hits, misses, hitRate := e.cache.Stats()
	snap.CacheHits = hits
	snap.CacheMisses = misses
	snap.CacheHitRate = hitRate

	return snap
}
