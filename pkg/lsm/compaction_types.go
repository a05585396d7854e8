package lsm

import (
	"time"
)

// LeveledPolicy decides when a level has accumulated enough tables to spill
// into the next one.
type LeveledPolicy struct {
	Thresholds []int // Table-count limits per level, from level 0 up
	Fallback   int   // Limit for levels past the explicit list
}

// DefaultLeveledPolicy returns the default trigger thresholds:
// 4 tables at L0, 10 at L1, 100 at L2, 1000 beyond.
func DefaultLeveledPolicy() *LeveledPolicy {
	return &LeveledPolicy{
		Thresholds: []int{4, 10, 100},
		Fallback:   1000,
	}
}

// ThresholdFor returns the table-count trigger for level.
func (p *LeveledPolicy) ThresholdFor(level int) int {
	if level < len(p.Thresholds) {
		return p.Thresholds[level]
	}
	return p.Fallback
}

// SelectCompaction returns the lowest level at or past its threshold, or nil
// when nothing needs compacting.
func (p *LeveledPolicy) SelectCompaction(lv *Levels) *CompactionPlan {
	for _, level := range lv.LevelNumbers() {
		if len(lv.Level(level)) >= p.ThresholdFor(level) {
			return &CompactionPlan{SourceLevel: level, TargetLevel: level + 1}
		}
	}
	return nil
}

// CompactionPlan names the adjacent level pair to merge.
type CompactionPlan struct {
	SourceLevel int
	TargetLevel int
}

// CompactionRecord is the accounting entry for one completed compaction.
type CompactionRecord struct {
	SourceLevel       int
	TargetLevel       int
	SourceTables      int
	OverlapTables     int
	OutputRecords     int
	OutputTableID     uint64 // 0 when the output was entirely tombstoned away
	InputBytes        int64
	OutputBytes       int64
	DuplicatesRemoved int
	TombstonesDropped int
	Duration          time.Duration
}
