package lsm

import (
	"bytes"
	"sort"
)

// Levels owns the per-level SSTable collections. Level 0 tables may overlap
// and are kept in flush order (newest last); levels 1 and up hold tables
// with pairwise disjoint key ranges, kept sorted by MinKey. Compaction is
// the only writer that preserves those invariants.
type Levels struct {
	levels map[int][]*SSTable
	nextID uint64
	cfg    tableConfig
}

// SearchStep records one probe of the read path. Level is MemtableLevel for
// the memtable probe.
type SearchStep struct {
	Level      int
	TableID    uint64
	Found      bool
	Tombstone  bool
	BloomSaved bool
}

// MemtableLevel tags the memtable step in a search path.
const MemtableLevel = -1

// NewLevels creates an empty level map.
func NewLevels(cfg tableConfig) *Levels {
	return &Levels{
		levels: make(map[int][]*SSTable),
		cfg:    cfg,
	}
}

// Add places a table at level. L0 appends preserve insertion order; higher
// levels insert sorted by MinKey.
func (lv *Levels) Add(level int, sst *SSTable) {
	if level == 0 {
		lv.levels[0] = append(lv.levels[0], sst)
		return
	}

	tables := lv.levels[level]
	i := sort.Search(len(tables), func(i int) bool {
		return bytes.Compare(tables[i].MinKey(), sst.MinKey()) >= 0
	})
	tables = append(tables, nil)
	copy(tables[i+1:], tables[i:])
	tables[i] = sst
	lv.levels[level] = tables
}

// Create builds a new table from entries and inserts it at level.
func (lv *Levels) Create(level int, entries []*Entry) (*SSTable, error) {
	lv.nextID++
	sst, err := NewSSTable(lv.nextID, entries, lv.cfg)
	if err != nil {
		return nil, err
	}
	if err := sst.checkSorted(); err != nil {
		return nil, err
	}
	lv.Add(level, sst)
	return sst, nil
}

// Level returns the tables at level, in storage order.
func (lv *Levels) Level(level int) []*SSTable {
	return lv.levels[level]
}

// LevelNumbers returns the populated level numbers in ascending order.
func (lv *Levels) LevelNumbers() []int {
	nums := make([]int, 0, len(lv.levels))
	for n, tables := range lv.levels {
		if len(tables) > 0 {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	return nums
}

// MaxPopulatedLevel returns the deepest level holding tables.
func (lv *Levels) MaxPopulatedLevel() (int, bool) {
	nums := lv.LevelNumbers()
	if len(nums) == 0 {
		return 0, false
	}
	return nums[len(nums)-1], true
}

// TotalTables returns the table count across all levels.
func (lv *Levels) TotalTables() int {
	total := 0
	for _, tables := range lv.levels {
		total += len(tables)
	}
	return total
}

// removeTables drops the given tables from level and evicts their blocks
// from the cache.
func (lv *Levels) removeTables(level int, drop []*SSTable) {
	dropSet := make(map[uint64]bool, len(drop))
	for _, sst := range drop {
		dropSet[sst.ID()] = true
		sst.dropFromCache()
	}

	kept := lv.levels[level][:0]
	for _, sst := range lv.levels[level] {
		if !dropSet[sst.ID()] {
			kept = append(kept, sst)
		}
	}
	if len(kept) == 0 {
		delete(lv.levels, level)
	} else {
		lv.levels[level] = kept
	}
}

// Clear drops every table at level.
func (lv *Levels) Clear(level int) {
	for _, sst := range lv.levels[level] {
		sst.dropFromCache()
	}
	delete(lv.levels, level)
}

// ClearAll drops every table at every level. The id counter keeps running so
// ids stay unique across the engine's lifetime.
func (lv *Levels) ClearAll() {
	for level := range lv.levels {
		lv.Clear(level)
	}
}

// Search probes levels in ascending order for key and returns the first hit
// together with the path of every table actually consulted. Level 0 is
// scanned newest-first, which preserves recency without timestamps; levels 1
// and up skip tables whose range cannot contain the key. A tombstone is a
// hit: the caller interprets it.
func (lv *Levels) Search(key []byte) (*Entry, []SearchStep) {
	var path []SearchStep

	for _, level := range lv.LevelNumbers() {
		tables := lv.levels[level]

		if level == 0 {
			for i := len(tables) - 1; i >= 0; i-- {
				if entry, done := searchTable(tables[i], level, key, &path); done {
					return entry, path
				}
			}
			continue
		}

		for _, sst := range tables {
			if !sst.ContainsInRange(key) {
				continue
			}
			if entry, done := searchTable(sst, level, key, &path); done {
				return entry, path
			}
		}
	}

	return nil, path
}

// searchTable probes one table, appends its step to the path, and reports
// whether the search is finished.
func searchTable(sst *SSTable, level int, key []byte, path *[]SearchStep) (*Entry, bool) {
	lookup := sst.Get(key)
	*path = append(*path, SearchStep{
		Level:      level,
		TableID:    sst.ID(),
		Found:      lookup.Found,
		Tombstone:  lookup.Found && lookup.Entry.Deleted,
		BloomSaved: lookup.BloomSaved,
	})
	if lookup.Found {
		return lookup.Entry, true
	}
	return nil, false
}
