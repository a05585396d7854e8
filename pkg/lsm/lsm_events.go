package lsm

import (
	"time"

	"github.com/dd0wney/cluso-kv/pkg/logging"
)

// The engine exposes four fixed event channels. Delivery is synchronous,
// after the engine state has been updated and before the operation returns.
// Observers must not call back into the engine; the reentrancy guard turns
// that into a usage error. A panicking observer is quarantined: the panic is
// recovered, logged, counted, and the operation still succeeds.

// InsertEvent reports a memtable insert, puts and tombstones alike.
type InsertEvent struct {
	Key          []byte
	Update       bool
	Tombstone    bool
	NodeLevel    int
	MemtableSize int
}

// FlushEvent reports a memtable flush into a new L0 table.
type FlushEvent struct {
	TableID uint64
	Records int
	Bytes   int64
}

// ReadEvent reports a completed get.
type ReadEvent struct {
	Key     []byte
	Found   bool
	Path    []SearchStep
	Elapsed time.Duration
}

// CompactionEvent reports a completed compaction.
type CompactionEvent struct {
	Record CompactionRecord
}

// Callbacks carries the observer functions. Nil fields are skipped.
type Callbacks struct {
	OnMemtableInsert func(InsertEvent)
	OnMemtableFlush  func(FlushEvent)
	OnRead           func(ReadEvent)
	OnCompaction     func(CompactionEvent)
}

// deliver runs one observer under the reentrancy guard with panic
// quarantine.
func (e *Engine) deliver(name string, fn func()) {
	if fn == nil {
		return
	}
	e.inCallback = true
	defer func() {
		e.inCallback = false
		if r := recover(); r != nil {
			e.observerErrors++
			e.log.Error("observer panicked",
				logging.String("channel", name),
				logging.String("panic", formatPanic(r)),
			)
		}
	}()
	fn()
}

func (e *Engine) emitInsert(ev InsertEvent) {
	if e.opts.Callbacks.OnMemtableInsert != nil {
		e.deliver("on_memtable_insert", func() { e.opts.Callbacks.OnMemtableInsert(ev) })
	}
}

func (e *Engine) emitFlush(ev FlushEvent) {
	if e.opts.Callbacks.OnMemtableFlush != nil {
		e.deliver("on_memtable_flush", func() { e.opts.Callbacks.OnMemtableFlush(ev) })
	}
}

func (e *Engine) emitRead(ev ReadEvent) {
	if e.opts.Callbacks.OnRead != nil {
		e.deliver("on_read", func() { e.opts.Callbacks.OnRead(ev) })
	}
}

func (e *Engine) emitCompaction(ev CompactionEvent) {
	if e.opts.Callbacks.OnCompaction != nil {
		e.deliver("on_compaction", func() { e.opts.Callbacks.OnCompaction(ev) })
	}
}
