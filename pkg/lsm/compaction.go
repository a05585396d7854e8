package lsm

import (
	"bytes"
	"time"

	"github.com/dd0wney/cluso-kv/pkg/logging"
)

// Compactor merges SSTables across adjacent levels: k-way merge, dedup by
// recency, tombstone drop at the bottom, and write-amplification accounting.
type Compactor struct {
	policy  *LeveledPolicy
	history []CompactionRecord
	log     logging.Logger

	// Write-amp totals across all compactions
	inputBytesTotal   int64
	outputBytesTotal  int64
	duplicatesTotal   int64
	tombstonesDropped int64
}

// NewCompactor creates a compactor with the given trigger policy.
func NewCompactor(policy *LeveledPolicy, log logging.Logger) *Compactor {
	if policy == nil {
		policy = DefaultLeveledPolicy()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Compactor{policy: policy, log: log}
}

// Compact merges every table at src with the overlapping tables at dst and
// replaces them with a single output table at dst. A merge whose output is
// entirely tombstoned still removes its inputs and produces no table. An
// empty source level fails without modifying state.
func (c *Compactor) Compact(lv *Levels, src, dst int) (*CompactionRecord, error) {
	if src < 0 || dst != src+1 {
		return nil, levelErr("Compact", src, ErrInvalidLevel)
	}

	sources := lv.Level(src)
	if len(sources) == 0 {
		return nil, levelErr("Compact", src, ErrEmptySourceLevel)
	}

	start := time.Now()

	// Union key range of the source tables decides which dst tables join
	lo, hi := sources[0].MinKey(), sources[0].MaxKey()
	for _, sst := range sources[1:] {
		if bytes.Compare(sst.MinKey(), lo) < 0 {
			lo = sst.MinKey()
		}
		if bytes.Compare(sst.MaxKey(), hi) > 0 {
			hi = sst.MaxKey()
		}
	}

	var overlaps []*SSTable
	for _, sst := range lv.Level(dst) {
		if sst.overlapsRange(lo, hi) {
			overlaps = append(overlaps, sst)
		}
	}

	merge, inputBytes, err := c.buildMerge(sources, overlaps)
	if err != nil {
		return nil, levelErr("Compact", src, err)
	}

	// Tombstones can only be dropped when nothing older can hide below dst
	dropTombstones := true
	if maxLevel, ok := lv.MaxPopulatedLevel(); ok && maxLevel > dst {
		dropTombstones = false
	}

	output, duplicates, tombstones := dedupStream(merge, dropTombstones)

	// Atomic from the caller's perspective: the engine is single-threaded,
	// so no read can observe the intermediate states
	lv.removeTables(src, sources)
	lv.removeTables(dst, overlaps)

	record := CompactionRecord{
		SourceLevel:       src,
		TargetLevel:       dst,
		SourceTables:      len(sources),
		OverlapTables:     len(overlaps),
		OutputRecords:     len(output),
		InputBytes:        inputBytes,
		DuplicatesRemoved: duplicates,
		TombstonesDropped: tombstones,
	}

	if len(output) > 0 {
		sst, err := lv.Create(dst, output)
		if err != nil {
			return nil, levelErr("Compact", dst, err)
		}
		record.OutputTableID = sst.ID()
		record.OutputBytes = sst.SizeBytes()
	}

	record.Duration = time.Since(start)
	c.history = append(c.history, record)
	c.inputBytesTotal += record.InputBytes
	c.outputBytesTotal += record.OutputBytes
	c.duplicatesTotal += int64(duplicates)
	c.tombstonesDropped += int64(tombstones)

	c.log.Debug("compaction finished",
		logging.LevelNum(src),
		logging.Int("source_tables", record.SourceTables),
		logging.Int("overlap_tables", record.OverlapTables),
		logging.Count(record.OutputRecords),
		logging.Int("duplicates_removed", duplicates),
		logging.Latency(record.Duration),
	)

	return &record, nil
}

// buildMerge assembles the k-way merge sources. Recency ranks: source-level
// tables are newer than target-level tables, and within the source level a
// later-inserted table (higher position, higher id) is newer.
func (c *Compactor) buildMerge(sources, overlaps []*SSTable) (*kwayMerge, int64, error) {
	merged := make([]*mergeSource, 0, len(sources)+len(overlaps))
	var inputBytes int64
	rank := 0

	for i := len(sources) - 1; i >= 0; i-- {
		entries, err := sources[i].All()
		if err != nil {
			return nil, 0, err
		}
		merged = append(merged, &mergeSource{entries: entries, rank: rank})
		inputBytes += sources[i].SizeBytes()
		rank++
	}
	for _, sst := range overlaps {
		entries, err := sst.All()
		if err != nil {
			return nil, 0, err
		}
		merged = append(merged, &mergeSource{entries: entries, rank: rank})
		inputBytes += sst.SizeBytes()
		rank++
	}

	return newKWayMerge(merged), inputBytes, nil
}

// dedupStream walks the merged stream keeping the first (newest) record of
// every equal-key run. Tombstones are dropped from the output when
// dropTombstones is set.
func dedupStream(merge *kwayMerge, dropTombstones bool) (output []*Entry, duplicates, tombstones int) {
	var lastKey []byte
	haveLast := false

	for {
		entry, ok := merge.Next()
		if !ok {
			break
		}

		if haveLast && bytes.Equal(entry.Key, lastKey) {
			duplicates++
			continue
		}
		lastKey = entry.Key
		haveLast = true

		if entry.Deleted && dropTombstones {
			tombstones++
			continue
		}
		output = append(output, entry)
	}
	return output, duplicates, tombstones
}

// AutoCompact applies the trigger policy repeatedly until no level is past
// its threshold, cascading upward as outputs land.
func (c *Compactor) AutoCompact(lv *Levels) ([]CompactionRecord, error) {
	var records []CompactionRecord
	for {
		plan := c.policy.SelectCompaction(lv)
		if plan == nil {
			return records, nil
		}
		record, err := c.Compact(lv, plan.SourceLevel, plan.TargetLevel)
		if err != nil {
			return records, err
		}
		records = append(records, *record)
	}
}

// History returns all compaction records, oldest first.
func (c *Compactor) History() []CompactionRecord {
	return c.history
}

// TotalCompactions returns the number of completed compactions.
func (c *Compactor) TotalCompactions() int {
	return len(c.history)
}

// DuplicatesRemoved returns the running duplicate-discard count.
func (c *Compactor) DuplicatesRemoved() int64 {
	return c.duplicatesTotal
}

// TombstonesDropped returns the running tombstone-drop count.
func (c *Compactor) TombstonesDropped() int64 {
	return c.tombstonesDropped
}

// WriteAmplification returns cumulative output bytes over cumulative input
// bytes across all compactions. Zero before the first compaction.
func (c *Compactor) WriteAmplification() float64 {
	if c.inputBytesTotal == 0 {
		return 0
	}
	return float64(c.outputBytesTotal) / float64(c.inputBytesTotal)
}

// Reset discards history and totals.
func (c *Compactor) Reset() {
	c.history = nil
	c.inputBytesTotal = 0
	c.outputBytesTotal = 0
	c.duplicatesTotal = 0
	c.tombstonesDropped = 0
}
