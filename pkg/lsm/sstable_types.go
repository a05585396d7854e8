package lsm

import (
	"bytes"
	"time"
)

// SSTable layout (heap-resident arena):
//   [Block 0: snappy(entries 0..step-1)]
//   [Block 1: snappy(entries step..2*step-1)]
//   ...
//   sparse index: first key of every block, i.e. every step-th key
//   bloom filter over the full key set
//
// Tables are immutable once built; only compaction or Clear destroys them.

// DefaultSparseIndexStep is the number of records per block, and therefore
// the stride of the sparse index.
const DefaultSparseIndexStep = 10

// IndexEntry represents an entry in the sparse index.
type IndexEntry struct {
	Key   []byte
	Block int
}

// SSTable is an immutable, sorted, key-indexed record table.
type SSTable struct {
	id         uint64
	blocks     [][]byte // snappy-compressed encoded blocks
	index      []IndexEntry
	bloom      *BloomFilter
	cache      *BlockCache
	minKey     []byte
	maxKey     []byte
	entryCount int
	rawBytes   int64 // uncompressed encoded size, used for write-amp accounting
	compBytes  int64
	createdAt  time.Time
}

// TableLookup is the outcome of a single-table point lookup.
type TableLookup struct {
	Entry      *Entry
	Found      bool
	BloomSaved bool // The bloom filter answered definitely-absent
}

// ID returns the table's identifier.
func (sst *SSTable) ID() uint64 {
	return sst.id
}

// EntryCount returns the number of records, tombstones included.
func (sst *SSTable) EntryCount() int {
	return sst.entryCount
}

// MinKey returns the smallest key in the table.
func (sst *SSTable) MinKey() []byte {
	return sst.minKey
}

// MaxKey returns the largest key in the table.
func (sst *SSTable) MaxKey() []byte {
	return sst.maxKey
}

// ContainsInRange reports whether key falls inside [MinKey, MaxKey]. Levels
// above 0 use this to skip tables without touching their blocks.
func (sst *SSTable) ContainsInRange(key []byte) bool {
	return bytes.Compare(key, sst.minKey) >= 0 && bytes.Compare(key, sst.maxKey) <= 0
}

// overlapsRange reports whether the table's key range intersects [lo, hi].
func (sst *SSTable) overlapsRange(lo, hi []byte) bool {
	return bytes.Compare(sst.minKey, hi) <= 0 && bytes.Compare(sst.maxKey, lo) >= 0
}

// SizeBytes returns the uncompressed encoded size estimate.
func (sst *SSTable) SizeBytes() int64 {
	return sst.rawBytes
}

// CompressedBytes returns the arena's actual footprint.
func (sst *SSTable) CompressedBytes() int64 {
	return sst.compBytes
}

// CreatedAt returns the table's creation time.
func (sst *SSTable) CreatedAt() time.Time {
	return sst.createdAt
}

// Bloom returns the table's bloom filter.
func (sst *SSTable) Bloom() *BloomFilter {
	return sst.bloom
}
