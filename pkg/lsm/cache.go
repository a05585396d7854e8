package lsm

import (
	"container/list"
	"fmt"
)

// BlockCache is an LRU cache for decompressed SSTable blocks.
type BlockCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List

	// Statistics
	hits   int64
	misses int64
}

type cacheEntry struct {
	key     string
	entries []*Entry
}

// DefaultBlockCacheCapacity is the default number of cached blocks.
const DefaultBlockCacheCapacity = 1024

// NewBlockCache creates a new LRU block cache.
func NewBlockCache(capacity int) *BlockCache {
	if capacity <= 0 {
		capacity = DefaultBlockCacheCapacity
	}
	return &BlockCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// blockCacheKey names a block by its table id and block index. Table ids are
// never reused, so stale entries can only waste space, not serve bad data.
func blockCacheKey(tableID uint64, block int) string {
	return fmt.Sprintf("%d/%d", tableID, block)
}

// Get retrieves a decoded block from the cache.
func (bc *BlockCache) Get(key string) ([]*Entry, bool) {
	if elem, ok := bc.cache[key]; ok {
		bc.lru.MoveToFront(elem)
		bc.hits++
		return elem.Value.(*cacheEntry).entries, true
	}
	bc.misses++
	return nil, false
}

// Put adds a decoded block to the cache.
func (bc *BlockCache) Put(key string, entries []*Entry) {
	if elem, ok := bc.cache[key]; ok {
		bc.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).entries = entries
		return
	}

	elem := bc.lru.PushFront(&cacheEntry{key: key, entries: entries})
	bc.cache[key] = elem

	if bc.lru.Len() > bc.capacity {
		bc.evict()
	}
}

// evict removes the least recently used entry.
func (bc *BlockCache) evict() {
	elem := bc.lru.Back()
	if elem != nil {
		bc.lru.Remove(elem)
		delete(bc.cache, elem.Value.(*cacheEntry).key)
	}
}

// Delete removes an entry from the cache.
func (bc *BlockCache) Delete(key string) {
	if elem, ok := bc.cache[key]; ok {
		bc.lru.Remove(elem)
		delete(bc.cache, key)
	}
}

// Clear removes all entries and resets statistics.
func (bc *BlockCache) Clear() {
	bc.cache = make(map[string]*list.Element)
	bc.lru = list.New()
	bc.hits = 0
	bc.misses = 0
}

// Size returns the current number of cached blocks.
func (bc *BlockCache) Size() int {
	return bc.lru.Len()
}

// Stats returns cache statistics.
func (bc *BlockCache) Stats() (hits, misses int64, hitRate float64) {
	hits = bc.hits
	misses = bc.misses
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return
}
