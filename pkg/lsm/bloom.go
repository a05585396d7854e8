package lsm

import (
	"hash/fnv"
	"math"

	"github.com/cespare/xxhash/v2"
)

// BloomFilter is a probabilistic data structure for set membership testing
// - False positives possible (may say key exists when it doesn't)
// - False negatives impossible (if it says key doesn't exist, it definitely doesn't)
type BloomFilter struct {
	bits      []bool
	size      int
	hashCount int
	inserted  int
}

// DefaultBloomFPR is the target false-positive rate for SSTable filters.
const DefaultBloomFPR = 0.01

// NewBloomFilter creates a Bloom filter optimized for the given parameters
// expectedItems: number of items to store
// falsePositiveRate: desired false positive rate (e.g., 0.01 for 1%)
func NewBloomFilter(expectedItems int, falsePositiveRate float64) *BloomFilter {
	if expectedItems <= 0 {
		expectedItems = 1
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = DefaultBloomFPR
	}

	// m = -(n * ln(p)) / (ln(2)^2)
	// k = (m/n) * ln(2)
	size := int(math.Ceil(-float64(expectedItems) * math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2)))
	hashCount := int(math.Ceil((float64(size) / float64(expectedItems)) * math.Ln2))

	// Cap at reasonable limits to prevent memory exhaustion
	const maxSize = 1 << 30
	if size > maxSize {
		size = maxSize
	}
	if size < 1 {
		size = 1
	}
	if hashCount < 1 {
		hashCount = 1
	}
	if hashCount > 64 {
		hashCount = 64
	}

	return &BloomFilter{
		bits:      make([]bool, size),
		size:      size,
		hashCount: hashCount,
	}
}

// Add adds a key to the Bloom filter.
func (bf *BloomFilter) Add(key []byte) {
	h1, h2 := baseHashes(key)
	for i := 0; i < bf.hashCount; i++ {
		bf.bits[bf.probe(h1, h2, i)] = true
	}
	bf.inserted++
}

// MayContain checks if a key might be in the set. It returns false on the
// first unset probe bit, so negative lookups stay cheap.
func (bf *BloomFilter) MayContain(key []byte) bool {
	h1, h2 := baseHashes(key)
	for i := 0; i < bf.hashCount; i++ {
		if !bf.bits[bf.probe(h1, h2, i)] {
			return false
		}
	}
	return true
}

// baseHashes computes the two independent seed hashes for double hashing.
// FNV-64a and xxhash mix differently enough that the derived probe
// sequences stay statistically independent.
func baseHashes(key []byte) (uint64, uint64) {
	f := fnv.New64a()
	_, _ = f.Write(key)
	h1 := f.Sum64()

	// Force h2 odd so the probe stride never degenerates
	h2 := xxhash.Sum64(key) | 1

	return h1, h2
}

// probe returns the i-th probe index: (h1 + i*h2) mod m.
func (bf *BloomFilter) probe(h1, h2 uint64, i int) int {
	return int((h1 + uint64(i)*h2) % uint64(bf.size))
}

// Size returns the size of the filter in bits.
func (bf *BloomFilter) Size() int {
	return bf.size
}

// HashCount returns the number of hash functions.
func (bf *BloomFilter) HashCount() int {
	return bf.hashCount
}

// Inserted returns the number of keys added.
func (bf *BloomFilter) Inserted() int {
	return bf.inserted
}

// FillRatio returns the fraction of bits set.
func (bf *BloomFilter) FillRatio() float64 {
	set := 0
	for _, b := range bf.bits {
		if b {
			set++
		}
	}
	return float64(set) / float64(bf.size)
}

// BloomStats is a point-in-time view of a filter.
type BloomStats struct {
	Bits           int
	HashCount      int
	Inserted       int
	BitsSet        int
	FillRatio      float64
	TheoreticalFPR float64
}

// Stats returns the filter's statistics, including the theoretical false
// positive rate p = (1 - e^(-k*n/m))^k for the current insert count.
func (bf *BloomFilter) Stats() BloomStats {
	set := 0
	for _, b := range bf.bits {
		if b {
			set++
		}
	}

	k := float64(bf.hashCount)
	n := float64(bf.inserted)
	m := float64(bf.size)

	return BloomStats{
		Bits:           bf.size,
		HashCount:      bf.hashCount,
		Inserted:       bf.inserted,
		BitsSet:        set,
		FillRatio:      float64(set) / m,
		TheoreticalFPR: math.Pow(1.0-math.Exp(-k*n/m), k),
	}
}
