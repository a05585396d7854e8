package lsm

import (
	"bytes"
	"sort"

	"github.com/golang/snappy"
)

// Get performs a point lookup:
//  1. bloom filter — a definitely-absent answer ends the lookup without
//     touching any block (BloomSaved=true)
//  2. sparse index — locate the single block that could hold the key
//  3. binary search inside the decoded block
//
// Tombstones are returned as found entries; the caller decides what a
// tombstone means at its level.
func (sst *SSTable) Get(key []byte) TableLookup {
	if !sst.bloom.MayContain(key) {
		return TableLookup{BloomSaved: true}
	}

	block := sst.findBlock(key)
	if block < 0 {
		return TableLookup{}
	}

	entries, err := sst.readBlock(block)
	if err != nil {
		return TableLookup{}
	}

	i := sort.Search(len(entries), func(i int) bool {
		return bytes.Compare(entries[i].Key, key) >= 0
	})
	if i < len(entries) && bytes.Equal(entries[i].Key, key) {
		return TableLookup{Entry: entries[i], Found: true}
	}
	return TableLookup{}
}

// findBlock returns the index of the block whose key interval covers key,
// or -1 when key sorts before the table's first key.
func (sst *SSTable) findBlock(key []byte) int {
	// First index position with Key > key; the candidate block is the one
	// before it
	i := sort.Search(len(sst.index), func(i int) bool {
		return bytes.Compare(sst.index[i].Key, key) > 0
	})
	return i - 1
}

// readBlock decodes one block, going through the block cache when attached.
func (sst *SSTable) readBlock(block int) ([]*Entry, error) {
	var cacheKey string
	if sst.cache != nil {
		cacheKey = blockCacheKey(sst.id, block)
		if entries, ok := sst.cache.Get(cacheKey); ok {
			return entries, nil
		}
	}

	raw, err := snappy.Decode(nil, sst.blocks[block])
	if err != nil {
		return nil, err
	}
	entries, err := decodeBlock(raw)
	if err != nil {
		return nil, err
	}

	if sst.cache != nil {
		sst.cache.Put(cacheKey, entries)
	}
	return entries, nil
}

// Scan returns records with lo <= key <= hi in key order, tombstones
// included. It binary-searches the start position and stops at the first
// key past hi.
func (sst *SSTable) Scan(lo, hi []byte) ([]*Entry, error) {
	start := sst.findBlock(lo)
	if start < 0 {
		start = 0
	}

	var results []*Entry
	for b := start; b < len(sst.blocks); b++ {
		entries, err := sst.readBlock(b)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if bytes.Compare(e.Key, lo) < 0 {
				continue
			}
			if bytes.Compare(e.Key, hi) > 0 {
				return results, nil
			}
			results = append(results, e)
		}
	}
	return results, nil
}

// All returns every record in key order. Compaction consumes tables through
// this.
func (sst *SSTable) All() ([]*Entry, error) {
	entries := make([]*Entry, 0, sst.entryCount)
	for b := range sst.blocks {
		decoded, err := sst.readBlock(b)
		if err != nil {
			return nil, err
		}
		entries = append(entries, decoded...)
	}
	return entries, nil
}

// dropFromCache evicts the table's blocks from the shared cache. Called when
// compaction or Clear destroys the table.
func (sst *SSTable) dropFromCache() {
	if sst.cache == nil {
		return
	}
	for b := range sst.blocks {
		sst.cache.Delete(blockCacheKey(sst.id, b))
	}
}
