package lsm

// Memtable is the engine's write buffer: a skip list holding the most recent
// record per key, tombstones included. It always contains at most one entry
// per key; a repeat put or delete overwrites in place.
type Memtable struct {
	list *SkipList
}

// NewMemtable creates an empty memtable.
func NewMemtable(maxLevel int, promoteP float64) *Memtable {
	return &Memtable{list: NewSkipList(maxLevel, promoteP)}
}

// Put inserts or overwrites the record for key. Returns the update kind and
// the skip-list node level that holds it.
func (mt *Memtable) Put(key, value []byte, seq uint64) (UpdateKind, int) {
	return mt.list.Upsert(&Entry{
		Key:   key,
		Value: value,
		Seq:   seq,
	})
}

// Delete writes a tombstone for key. Tombstones are first-class records and
// shadow anything older in the SSTable levels.
func (mt *Memtable) Delete(key []byte, seq uint64) (UpdateKind, int) {
	return mt.list.Upsert(&Entry{
		Key:     key,
		Seq:     seq,
		Deleted: true,
	})
}

// Get returns the record for key, tombstones included.
func (mt *Memtable) Get(key []byte) (*Entry, bool) {
	return mt.list.Search(key)
}

// Len returns the number of records, tombstones included.
func (mt *Memtable) Len() int {
	return mt.list.Len()
}

// Height returns the backing skip list's current height.
func (mt *Memtable) Height() int {
	return mt.list.Height()
}

// ApproxBytes returns the approximate memory usage in bytes.
func (mt *Memtable) ApproxBytes() int64 {
	return mt.list.ApproxBytes()
}

// Snapshot returns all records in key order. The flush path hands this
// directly to the SSTable builder, which relies on the ordering.
func (mt *Memtable) Snapshot() []*Entry {
	entries := make([]*Entry, 0, mt.list.Len())
	for it := mt.list.Iterator(); it.Next(); {
		entries = append(entries, it.Entry())
	}
	return entries
}

// Clear discards all records.
func (mt *Memtable) Clear() {
	mt.list = NewSkipList(mt.list.maxLevel, mt.list.promoteP)
}
