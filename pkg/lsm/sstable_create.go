package lsm

import (
	"bytes"
	"sort"
	"time"

	"github.com/golang/snappy"
)

// tableConfig carries the construction knobs shared by every table the
// engine builds.
type tableConfig struct {
	sparseStep int
	bloomFPR   float64
	cache      *BlockCache
}

// NewSSTable builds an immutable table from entries. Input from a memtable
// flush is already sorted; anything else is sorted defensively. Duplicate
// keys keep the record with the highest sequence number. Building from zero
// records fails with ErrEmptyTable.
func NewSSTable(id uint64, entries []*Entry, cfg tableConfig) (*SSTable, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTable
	}
	if cfg.sparseStep <= 0 {
		cfg.sparseStep = DefaultSparseIndexStep
	}

	if !sort.SliceIsSorted(entries, func(i, j int) bool {
		return EntryCompare(entries[i], entries[j]) < 0
	}) {
		sorted := make([]*Entry, len(entries))
		copy(sorted, entries)
		sort.Slice(sorted, func(i, j int) bool {
			if cmp := EntryCompare(sorted[i], sorted[j]); cmp != 0 {
				return cmp < 0
			}
			return sorted[i].Seq > sorted[j].Seq
		})
		entries = sorted
	}

	// Collapse duplicate keys, keeping the newest record
	unique := entries[:0:0]
	for _, e := range entries {
		if n := len(unique); n > 0 && bytes.Equal(unique[n-1].Key, e.Key) {
			if e.Seq > unique[n-1].Seq {
				unique[n-1] = e
			}
			continue
		}
		unique = append(unique, e)
	}
	entries = unique

	bloom := NewBloomFilter(len(entries), cfg.bloomFPR)
	for _, e := range entries {
		bloom.Add(e.Key)
	}

	blocks := make([][]byte, 0, (len(entries)+cfg.sparseStep-1)/cfg.sparseStep)
	index := make([]IndexEntry, 0, cap(blocks))
	var rawBytes, compBytes int64

	for start := 0; start < len(entries); start += cfg.sparseStep {
		end := start + cfg.sparseStep
		if end > len(entries) {
			end = len(entries)
		}

		raw := encodeBlock(entries[start:end])
		comp := snappy.Encode(nil, raw)

		index = append(index, IndexEntry{
			Key:   entries[start].Key,
			Block: len(blocks),
		})
		blocks = append(blocks, comp)
		rawBytes += int64(len(raw))
		compBytes += int64(len(comp))
	}

	return &SSTable{
		id:         id,
		blocks:     blocks,
		index:      index,
		bloom:      bloom,
		cache:      cfg.cache,
		minKey:     entries[0].Key,
		maxKey:     entries[len(entries)-1].Key,
		entryCount: len(entries),
		rawBytes:   rawBytes,
		compBytes:  compBytes,
		createdAt:  time.Now(),
	}, nil
}

// checkSorted verifies that keys are strictly increasing across the sparse
// index. A failure here means the table arena is corrupt.
func (sst *SSTable) checkSorted() error {
	for i := 1; i < len(sst.index); i++ {
		if bytes.Compare(sst.index[i-1].Key, sst.index[i].Key) >= 0 {
			return ErrEngineCorrupted
		}
	}
	return nil
}
