package lsm

import (
	"bytes"
	"fmt"
	"testing"
)

func testTableConfig() tableConfig {
	return tableConfig{
		sparseStep: DefaultSparseIndexStep,
		bloomFPR:   DefaultBloomFPR,
	}
}

func sortedEntries(n int) []*Entry {
	entries := make([]*Entry, 0, n)
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%04d", i))
		entries = append(entries, &Entry{
			Key:   key,
			Value: []byte(fmt.Sprintf("value-%04d", i)),
			Seq:   uint64(i + 1),
		})
	}
	return entries
}

func TestSSTableBuildAndGet(t *testing.T) {
	entries := sortedEntries(95)
	sst, err := NewSSTable(1, entries, testTableConfig())
	if err != nil {
		t.Fatalf("NewSSTable failed: %v", err)
	}

	if sst.EntryCount() != 95 {
		t.Errorf("EntryCount = %d, want 95", sst.EntryCount())
	}
	if !bytes.Equal(sst.MinKey(), []byte("key-0000")) {
		t.Errorf("MinKey = %s", sst.MinKey())
	}
	if !bytes.Equal(sst.MaxKey(), []byte("key-0094")) {
		t.Errorf("MaxKey = %s", sst.MaxKey())
	}
	if sst.SizeBytes() <= 0 {
		t.Error("SizeBytes must be positive")
	}

	for _, e := range entries {
		lookup := sst.Get(e.Key)
		if !lookup.Found {
			t.Fatalf("Key %s not found", e.Key)
		}
		if !bytes.Equal(lookup.Entry.Value, e.Value) {
			t.Errorf("Value mismatch for %s", e.Key)
		}
	}
}

func TestSSTableEmptyInput(t *testing.T) {
	_, err := NewSSTable(1, nil, testTableConfig())
	if err != ErrEmptyTable {
		t.Errorf("Empty build error = %v, want ErrEmptyTable", err)
	}
}

func TestSSTableDefensiveSort(t *testing.T) {
	entries := sortedEntries(30)
	shuffled := []*Entry{entries[20], entries[5], entries[29], entries[0], entries[13]}

	sst, err := NewSSTable(1, shuffled, testTableConfig())
	if err != nil {
		t.Fatalf("NewSSTable failed: %v", err)
	}

	all, err := sst.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	for i := 1; i < len(all); i++ {
		if bytes.Compare(all[i-1].Key, all[i].Key) >= 0 {
			t.Fatal("Records not strictly increasing after defensive sort")
		}
	}
}

func TestSSTableDuplicateKeysKeepNewest(t *testing.T) {
	entries := []*Entry{
		{Key: []byte("k"), Value: []byte("old"), Seq: 1},
		{Key: []byte("k"), Value: []byte("new"), Seq: 2},
		{Key: []byte("z"), Value: []byte("zz"), Seq: 3},
	}

	sst, err := NewSSTable(1, entries, testTableConfig())
	if err != nil {
		t.Fatalf("NewSSTable failed: %v", err)
	}
	if sst.EntryCount() != 2 {
		t.Errorf("EntryCount = %d, want 2 after dedup", sst.EntryCount())
	}

	lookup := sst.Get([]byte("k"))
	if !lookup.Found || !bytes.Equal(lookup.Entry.Value, []byte("new")) {
		t.Errorf("Duplicate collapse kept the wrong record: %+v", lookup.Entry)
	}
}

func TestSSTableMissAndBloomSaved(t *testing.T) {
	sst, err := NewSSTable(1, sortedEntries(50), testTableConfig())
	if err != nil {
		t.Fatalf("NewSSTable failed: %v", err)
	}

	saved := 0
	for i := 0; i < 200; i++ {
		lookup := sst.Get([]byte(fmt.Sprintf("absent-%04d", i)))
		if lookup.Found {
			t.Fatalf("Found a key that does not exist: absent-%04d", i)
		}
		if lookup.BloomSaved {
			saved++
		}
	}

	// With a 1% target rate nearly all of the 200 misses should be answered
	// by the bloom filter alone
	if saved < 150 {
		t.Errorf("Bloom saved only %d of 200 misses", saved)
	}
}

func TestSSTableTombstoneIsAHit(t *testing.T) {
	entries := []*Entry{
		{Key: []byte("alive"), Value: []byte("v"), Seq: 1},
		{Key: []byte("dead"), Seq: 2, Deleted: true},
	}

	sst, err := NewSSTable(1, entries, testTableConfig())
	if err != nil {
		t.Fatalf("NewSSTable failed: %v", err)
	}

	lookup := sst.Get([]byte("dead"))
	if !lookup.Found || !lookup.Entry.Deleted {
		t.Error("Tombstone must surface as a found record")
	}
}

func TestSSTableContainsInRange(t *testing.T) {
	sst, err := NewSSTable(1, sortedEntries(20), testTableConfig())
	if err != nil {
		t.Fatalf("NewSSTable failed: %v", err)
	}

	cases := []struct {
		key  string
		want bool
	}{
		{"key-0000", true},
		{"key-0010", true},
		{"key-0019", true},
		{"kex", false},
		{"key-0020", false},
		{"zzz", false},
	}
	for _, c := range cases {
		if got := sst.ContainsInRange([]byte(c.key)); got != c.want {
			t.Errorf("ContainsInRange(%s) = %v, want %v", c.key, got, c.want)
		}
	}
}

func TestSSTableScan(t *testing.T) {
	sst, err := NewSSTable(1, sortedEntries(100), testTableConfig())
	if err != nil {
		t.Fatalf("NewSSTable failed: %v", err)
	}

	results, err := sst.Scan([]byte("key-0025"), []byte("key-0040"))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 16 {
		t.Fatalf("Scan returned %d records, want 16 (inclusive bounds)", len(results))
	}
	if !bytes.Equal(results[0].Key, []byte("key-0025")) {
		t.Errorf("First scanned key = %s", results[0].Key)
	}
	if !bytes.Equal(results[len(results)-1].Key, []byte("key-0040")) {
		t.Errorf("Last scanned key = %s", results[len(results)-1].Key)
	}

	// Range entirely before the table
	results, err = sst.Scan([]byte("aaa"), []byte("bbb"))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Out-of-range scan returned %d records", len(results))
	}
}

func TestSSTableAll(t *testing.T) {
	entries := sortedEntries(33)
	sst, err := NewSSTable(1, entries, testTableConfig())
	if err != nil {
		t.Fatalf("NewSSTable failed: %v", err)
	}

	all, err := sst.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 33 {
		t.Fatalf("All returned %d records, want 33", len(all))
	}
	for i, e := range all {
		if !bytes.Equal(e.Key, entries[i].Key) {
			t.Fatalf("Record %d out of order", i)
		}
	}
}

func TestSSTableBlockCacheIntegration(t *testing.T) {
	cache := NewBlockCache(16)
	cfg := testTableConfig()
	cfg.cache = cache

	sst, err := NewSSTable(7, sortedEntries(40), cfg)
	if err != nil {
		t.Fatalf("NewSSTable failed: %v", err)
	}

	sst.Get([]byte("key-0001"))
	sst.Get([]byte("key-0002")) // Same block, should hit

	hits, misses, _ := cache.Stats()
	if misses == 0 {
		t.Error("First block read should miss the cache")
	}
	if hits == 0 {
		t.Error("Second read of the same block should hit the cache")
	}

	sst.dropFromCache()
	if cache.Size() != 0 {
		t.Errorf("Cache holds %d blocks after dropFromCache", cache.Size())
	}
}

func TestSSTableCompressionRoundTrip(t *testing.T) {
	// Values with obvious redundancy compress; the arena must still decode
	// back to identical records
	entries := make([]*Entry, 0, 64)
	for i := 0; i < 64; i++ {
		entries = append(entries, &Entry{
			Key:   []byte(fmt.Sprintf("key-%04d", i)),
			Value: bytes.Repeat([]byte("ab"), 100),
			Seq:   uint64(i + 1),
		})
	}

	sst, err := NewSSTable(1, entries, testTableConfig())
	if err != nil {
		t.Fatalf("NewSSTable failed: %v", err)
	}

	if sst.CompressedBytes() >= sst.SizeBytes() {
		t.Errorf("Redundant data did not compress: %d >= %d", sst.CompressedBytes(), sst.SizeBytes())
	}

	all, err := sst.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	for i, e := range all {
		if !bytes.Equal(e.Key, entries[i].Key) || !bytes.Equal(e.Value, entries[i].Value) || e.Seq != entries[i].Seq {
			t.Fatalf("Record %d corrupted by arena round trip", i)
		}
	}
}
