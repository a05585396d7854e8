package lsm

import (
	"time"

	"github.com/dd0wney/cluso-kv/pkg/logging"
	"github.com/dd0wney/cluso-kv/pkg/metrics"
	"github.com/dd0wney/cluso-kv/pkg/validation"
)

// Options configures the engine.
type Options struct {
	// MemtableThreshold is the record count that triggers a flush.
	MemtableThreshold int
	// MaxSkipListLevel bounds memtable skip-list height.
	MaxSkipListLevel int
	// SkipListP is the skip-list promotion probability.
	SkipListP float64
	// SparseIndexStep is the SSTable sparse-index stride (records per block).
	SparseIndexStep int
	// BloomFPR is the target false-positive rate for SSTable bloom filters.
	BloomFPR float64
	// CompactionThresholds are per-level table-count triggers from level 0
	// up; CompactionThresholdFallback applies past the list.
	CompactionThresholds        []int
	CompactionThresholdFallback int
	// BlockCacheCapacity is the number of decompressed blocks kept hot.
	BlockCacheCapacity int

	// Logger receives engine events; defaults to the nop logger.
	Logger logging.Logger
	// Metrics, when non-nil, is updated after every put, get and delete, and
	// on every flush and compaction; Clear leaves it untouched.
	Metrics *metrics.Registry
	// Callbacks are the four observer channels.
	Callbacks Callbacks
}

// DefaultMemtableThreshold is the default flush trigger.
const DefaultMemtableThreshold = 10

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		MemtableThreshold:           DefaultMemtableThreshold,
		MaxSkipListLevel:            DefaultMaxSkipListLevel,
		SkipListP:                   DefaultSkipListP,
		SparseIndexStep:             DefaultSparseIndexStep,
		BloomFPR:                    DefaultBloomFPR,
		CompactionThresholds:        []int{4, 10, 100},
		CompactionThresholdFallback: 1000,
		BlockCacheCapacity:          DefaultBlockCacheCapacity,
	}
}

// Validate checks every numeric knob, collecting all problems.
func (o *Options) Validate() error {
	return validation.NewConfigValidator("Options").
		MinInt("MemtableThreshold", o.MemtableThreshold, 1).
		RangeInt("MaxSkipListLevel", o.MaxSkipListLevel, 1, 64).
		Probability("SkipListP", o.SkipListP).
		MinInt("SparseIndexStep", o.SparseIndexStep, 1).
		Probability("BloomFPR", o.BloomFPR).
		EachMinInt("CompactionThresholds", o.CompactionThresholds, 1).
		MinInt("CompactionThresholdFallback", o.CompactionThresholdFallback, 1).
		MinInt("BlockCacheCapacity", o.BlockCacheCapacity, 1).
		Result()
}

// ComplexityPointOp is the nominal complexity class of point operations.
const ComplexityPointOp = "O(log n)"

// PutResult describes one completed put.
type PutResult struct {
	Op          UpdateKind
	NodeLevel   int
	Flushed     bool
	Flush       *FlushInfo
	Compacted   bool
	Compactions []CompactionRecord
	Elapsed     time.Duration
	Complexity  string
}

// GetResult describes one completed get, including the full search path.
type GetResult struct {
	Found     bool
	Value     []byte
	Tombstone bool // The miss was a tombstone hit
	Path      []SearchStep
	Elapsed   time.Duration
}

// DeleteResult describes one completed delete.
type DeleteResult struct {
	Flushed     bool
	Flush       *FlushInfo
	Compacted   bool
	Compactions []CompactionRecord
	Elapsed     time.Duration
}

// FlushInfo describes one memtable flush.
type FlushInfo struct {
	TableID uint64
	Records int
	Bytes   int64
}
