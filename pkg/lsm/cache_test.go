package lsm

import (
	"fmt"
	"testing"
)

func cachedEntries(tag string) []*Entry {
	return []*Entry{{Key: []byte(tag), Value: []byte(tag), Seq: 1}}
}

func TestBlockCachePutGet(t *testing.T) {
	bc := NewBlockCache(10)

	bc.Put("1/0", cachedEntries("a"))

	entries, ok := bc.Get("1/0")
	if !ok || len(entries) != 1 || string(entries[0].Key) != "a" {
		t.Fatalf("Get = (%v, %v)", entries, ok)
	}

	if _, ok := bc.Get("1/1"); ok {
		t.Error("Got a block that was never cached")
	}
}

func TestBlockCacheEviction(t *testing.T) {
	bc := NewBlockCache(3)

	for i := 0; i < 3; i++ {
		bc.Put(fmt.Sprintf("1/%d", i), cachedEntries(fmt.Sprintf("b%d", i)))
	}

	// Touch block 0 so block 1 becomes the LRU victim
	bc.Get("1/0")
	bc.Put("1/3", cachedEntries("b3"))

	if _, ok := bc.Get("1/1"); ok {
		t.Error("LRU victim not evicted")
	}
	for _, key := range []string{"1/0", "1/2", "1/3"} {
		if _, ok := bc.Get(key); !ok {
			t.Errorf("Block %s evicted unexpectedly", key)
		}
	}
	if bc.Size() != 3 {
		t.Errorf("Size = %d, want 3", bc.Size())
	}
}

func TestBlockCacheDelete(t *testing.T) {
	bc := NewBlockCache(10)
	bc.Put("1/0", cachedEntries("a"))
	bc.Delete("1/0")

	if _, ok := bc.Get("1/0"); ok {
		t.Error("Block survived Delete")
	}
	// Deleting an absent key is a no-op
	bc.Delete("9/9")
}

func TestBlockCacheStats(t *testing.T) {
	bc := NewBlockCache(10)
	bc.Put("1/0", cachedEntries("a"))

	bc.Get("1/0")
	bc.Get("1/0")
	bc.Get("2/0")

	hits, misses, hitRate := bc.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("Stats = (%d, %d), want (2, 1)", hits, misses)
	}
	if hitRate < 0.66 || hitRate > 0.67 {
		t.Errorf("Hit rate = %f, want ~0.667", hitRate)
	}
}

func TestBlockCacheClear(t *testing.T) {
	bc := NewBlockCache(10)
	bc.Put("1/0", cachedEntries("a"))
	bc.Get("1/0")

	bc.Clear()
	if bc.Size() != 0 {
		t.Errorf("Size = %d after Clear", bc.Size())
	}
	hits, misses, _ := bc.Stats()
	if hits != 0 || misses != 0 {
		t.Errorf("Stats not reset: (%d, %d)", hits, misses)
	}
}
