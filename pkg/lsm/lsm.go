package lsm

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-kv/pkg/logging"
	"github.com/dd0wney/cluso-kv/pkg/metrics"
)

// Engine is the LSM tree facade. It owns one memtable, the level map, the
// compactor and every counter; observers, logger and metrics are injected.
// All operations run on the caller's goroutine and complete before
// returning, including any flush and compaction cascade they trigger.
type Engine struct {
	id        uuid.UUID
	opts      Options
	mem       *Memtable
	cache     *BlockCache
	levels    *Levels
	compactor *Compactor

	seq            uint64
	counters       opCounters
	observerErrors int64
	inCallback     bool
	corrupted      error

	log       logging.Logger
	metrics   *metrics.Registry
	createdAt time.Time

	// Last cache totals published to prometheus, for delta accounting
	lastCacheHits   int64
	lastCacheMisses int64
}

type opCounters struct {
	puts    int64
	gets    int64
	deletes int64
	hits    int64
	misses  int64
	flushes int64

	bloomChecks int64
	bloomSaved  int64
}

// New creates an empty engine from opts. Zero-value knobs are filled from
// DefaultOptions; anything out of range fails validation.
func New(opts Options) (*Engine, error) {
	defaults := DefaultOptions()
	if opts.MemtableThreshold == 0 {
		opts.MemtableThreshold = defaults.MemtableThreshold
	}
	if opts.MaxSkipListLevel == 0 {
		opts.MaxSkipListLevel = defaults.MaxSkipListLevel
	}
	if opts.SkipListP == 0 {
		opts.SkipListP = defaults.SkipListP
	}
	if opts.SparseIndexStep == 0 {
		opts.SparseIndexStep = defaults.SparseIndexStep
	}
	if opts.BloomFPR == 0 {
		opts.BloomFPR = defaults.BloomFPR
	}
	if opts.CompactionThresholds == nil {
		opts.CompactionThresholds = defaults.CompactionThresholds
	}
	if opts.CompactionThresholdFallback == 0 {
		opts.CompactionThresholdFallback = defaults.CompactionThresholdFallback
	}
	if opts.BlockCacheCapacity == 0 {
		opts.BlockCacheCapacity = defaults.BlockCacheCapacity
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	log := opts.Logger.With(
		logging.Component("lsm"),
		logging.String("engine_id", id.String()),
	)

	cache := NewBlockCache(opts.BlockCacheCapacity)
	e := &Engine{
		id:    id,
		opts:  opts,
		mem:   NewMemtable(opts.MaxSkipListLevel, opts.SkipListP),
		cache: cache,
		levels: NewLevels(tableConfig{
			sparseStep: opts.SparseIndexStep,
			bloomFPR:   opts.BloomFPR,
			cache:      cache,
		}),
		compactor: NewCompactor(&LeveledPolicy{
			Thresholds: opts.CompactionThresholds,
			Fallback:   opts.CompactionThresholdFallback,
		}, log),
		log:       log,
		metrics:   opts.Metrics,
		createdAt: time.Now(),
	}

	log.Info("engine created",
		logging.Int("memtable_threshold", opts.MemtableThreshold),
		logging.Float64("bloom_fpr", opts.BloomFPR),
	)
	return e, nil
}

// ID returns the engine instance identifier.
func (e *Engine) ID() string {
	return e.id.String()
}

// guard rejects operations once an invariant violation has latched, and
// operations issued from inside an observer callback.
func (e *Engine) guard(op string) error {
	if e.corrupted != nil {
		return opErr(op, e.corrupted)
	}
	if e.inCallback {
		return opErr(op, ErrReentrantCallback)
	}
	return nil
}

// Put inserts or updates key. A put that fills the memtable flushes it, and
// any flush is followed by the compaction cascade; everything completes
// before Put returns.
func (e *Engine) Put(key, value []byte) (*PutResult, error) {
	if err := e.guard("Put"); err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, keyErr("Put", key, ErrEmptyKey)
	}

	start := time.Now()
	e.seq++
	kind, nodeLevel := e.mem.Put(cloneBytes(key), cloneBytes(value), e.seq)
	e.counters.puts++

	e.emitInsert(InsertEvent{
		Key:          key,
		Update:       kind == UpdateKindUpdate,
		NodeLevel:    nodeLevel,
		MemtableSize: e.mem.Len(),
	})

	res := &PutResult{
		Op:         kind,
		NodeLevel:  nodeLevel,
		Complexity: ComplexityPointOp,
	}

	if e.mem.Len() >= e.opts.MemtableThreshold {
		info, err := e.flush()
		if err != nil {
			return nil, err
		}
		res.Flushed = true
		res.Flush = info
	}

	records, err := e.autoCompact()
	if err != nil {
		return nil, err
	}
	res.Compactions = records
	res.Compacted = len(records) > 0

	res.Elapsed = time.Since(start)
	e.publishOp("put", res.Elapsed)
	return res, nil
}

// Get looks key up: memtable first, then the levels from the top down. The
// result carries the full search path, one step per probe.
func (e *Engine) Get(key []byte) (*GetResult, error) {
	if err := e.guard("Get"); err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, keyErr("Get", key, ErrEmptyKey)
	}

	start := time.Now()
	e.counters.gets++
	res := &GetResult{}

	if entry, ok := e.mem.Get(key); ok {
		res.Path = append(res.Path, SearchStep{
			Level:     MemtableLevel,
			Found:     true,
			Tombstone: entry.Deleted,
		})
		if entry.Deleted {
			res.Tombstone = true
		} else {
			res.Found = true
			res.Value = entry.Value
		}
	} else {
		res.Path = append(res.Path, SearchStep{Level: MemtableLevel})

		entry, path := e.levels.Search(key)
		res.Path = append(res.Path, path...)
		for _, step := range path {
			e.counters.bloomChecks++
			if step.BloomSaved {
				e.counters.bloomSaved++
			}
			if e.metrics != nil {
				e.metrics.RecordBloomCheck(step.BloomSaved)
			}
		}

		if entry != nil {
			if entry.Deleted {
				res.Tombstone = true
			} else {
				res.Found = true
				res.Value = entry.Value
			}
		}
	}

	if res.Found {
		e.counters.hits++
	} else {
		e.counters.misses++
	}
	res.Elapsed = time.Since(start)

	e.emitRead(ReadEvent{
		Key:     key,
		Found:   res.Found,
		Path:    res.Path,
		Elapsed: res.Elapsed,
	})

	if e.metrics != nil {
		switch {
		case res.Found:
			e.metrics.RecordRead("hit")
		case res.Tombstone:
			e.metrics.RecordRead("tombstone")
		default:
			e.metrics.RecordRead("miss")
		}
	}
	e.publishOp("get", res.Elapsed)
	return res, nil
}

// Delete writes a tombstone for key. Deleting an absent or already-deleted
// key succeeds; the tombstone still shadows anything older below.
func (e *Engine) Delete(key []byte) (*DeleteResult, error) {
	if err := e.guard("Delete"); err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, keyErr("Delete", key, ErrEmptyKey)
	}

	start := time.Now()
	e.seq++
	kind, nodeLevel := e.mem.Delete(cloneBytes(key), e.seq)
	e.counters.deletes++

	e.emitInsert(InsertEvent{
		Key:          key,
		Update:       kind == UpdateKindUpdate,
		Tombstone:    true,
		NodeLevel:    nodeLevel,
		MemtableSize: e.mem.Len(),
	})

	res := &DeleteResult{}
	if e.mem.Len() >= e.opts.MemtableThreshold {
		info, err := e.flush()
		if err != nil {
			return nil, err
		}
		res.Flushed = true
		res.Flush = info

		// Compaction piggy-backs on any flush
		records, err := e.autoCompact()
		if err != nil {
			return nil, err
		}
		res.Compactions = records
		res.Compacted = len(records) > 0
	}

	res.Elapsed = time.Since(start)
	e.publishOp("delete", res.Elapsed)
	return res, nil
}

// Flush snapshots the memtable into a new L0 table and clears it. A flush of
// an empty memtable is a no-op and returns nil.
func (e *Engine) Flush() (*FlushInfo, error) {
	if err := e.guard("Flush"); err != nil {
		return nil, err
	}
	return e.flush()
}

func (e *Engine) flush() (*FlushInfo, error) {
	if e.mem.Len() == 0 {
		return nil, nil
	}

	entries := e.mem.Snapshot()
	sst, err := e.levels.Create(0, entries)
	if err != nil {
		return nil, e.fatal("Flush", err)
	}
	e.mem.Clear()
	e.counters.flushes++

	info := &FlushInfo{
		TableID: sst.ID(),
		Records: sst.EntryCount(),
		Bytes:   sst.SizeBytes(),
	}

	e.log.Debug("memtable flushed",
		logging.Table(info.TableID),
		logging.Count(info.Records),
		logging.Bytes(info.Bytes),
	)
	if e.metrics != nil {
		e.metrics.RecordFlush()
	}
	e.emitFlush(FlushEvent{
		TableID: info.TableID,
		Records: info.Records,
		Bytes:   info.Bytes,
	})
	return info, nil
}

// Compact manually merges level src into src+1.
func (e *Engine) Compact(src, dst int) (*CompactionRecord, error) {
	if err := e.guard("Compact"); err != nil {
		return nil, err
	}

	record, err := e.compactor.Compact(e.levels, src, dst)
	if err != nil {
		if isCorruption(err) {
			return nil, e.fatal("Compact", err)
		}
		return nil, err
	}
	e.afterCompaction(*record)
	return record, nil
}

// autoCompact runs the trigger policy to quiescence, emitting one event per
// completed compaction.
func (e *Engine) autoCompact() ([]CompactionRecord, error) {
	records, err := e.compactor.AutoCompact(e.levels)
	for _, record := range records {
		e.afterCompaction(record)
	}
	if err != nil {
		if isCorruption(err) {
			return records, e.fatal("Compact", err)
		}
		return records, err
	}
	return records, nil
}

func (e *Engine) afterCompaction(record CompactionRecord) {
	if e.metrics != nil {
		e.metrics.RecordCompaction(
			record.Duration,
			record.DuplicatesRemoved,
			record.TombstonesDropped,
			e.compactor.WriteAmplification(),
		)
	}
	e.emitCompaction(CompactionEvent{Record: record})
}

// Clear wipes the memtable, every level, the compaction history and all
// counters back to the initial state.
func (e *Engine) Clear() error {
	if e.inCallback {
		return opErr("Clear", ErrReentrantCallback)
	}

	e.mem.Clear()
	e.levels.ClearAll()
	e.cache.Clear()
	e.compactor.Reset()
	e.counters = opCounters{}
	e.observerErrors = 0
	e.seq = 0
	e.corrupted = nil
	e.lastCacheHits = 0
	e.lastCacheMisses = 0

	e.log.Info("engine cleared")
	return nil
}

// fatal latches an invariant violation; every later operation fails.
func (e *Engine) fatal(op string, cause error) error {
	e.corrupted = ErrEngineCorrupted
	e.log.Error("invariant violated, engine halted", logging.Operation(op), logging.Error(cause))
	return opErr(op, cause)
}

func isCorruption(err error) bool {
	return errors.Is(err, ErrEngineCorrupted)
}

// publishOp pushes the per-op metrics and refreshed gauges.
func (e *Engine) publishOp(op string, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordOp(op, "ok", elapsed)
	e.metrics.SetMemtable(e.mem.Len(), e.mem.ApproxBytes(), e.mem.Height())

	tables := make(map[int]int)
	bytes := make(map[int]int64)
	for _, level := range e.levels.LevelNumbers() {
		for _, sst := range e.levels.Level(level) {
			tables[level]++
			bytes[level] += sst.SizeBytes()
		}
	}
	e.metrics.SetLevels(tables, bytes)

	hits, misses, _ := e.cache.Stats()
	e.metrics.RecordCacheDelta(hits-e.lastCacheHits, misses-e.lastCacheMisses, e.cache.Size())
	e.lastCacheHits = hits
	e.lastCacheMisses = misses
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func formatPanic(r any) string {
	return fmt.Sprintf("%v", r)
}
