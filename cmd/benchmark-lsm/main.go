package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/dd0wney/cluso-kv/pkg/lsm"
)

func main() {
	writes := flag.Int("writes", 100000, "Number of writes")
	reads := flag.Int("reads", 10000, "Number of reads")
	deletes := flag.Int("deletes", 1000, "Number of deletes")
	valueSize := flag.Int("value-size", 256, "Value size in bytes")
	threshold := flag.Int("memtable-threshold", 4096, "Memtable flush threshold")
	flag.Parse()

	fmt.Printf("cluso-kv — LSM engine benchmark\n")
	fmt.Printf("===============================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Writes: %d\n", *writes)
	fmt.Printf("  Reads: %d\n", *reads)
	fmt.Printf("  Deletes: %d\n", *deletes)
	fmt.Printf("  Value Size: %d bytes\n\n", *valueSize)

	opts := lsm.DefaultOptions()
	opts.MemtableThreshold = *threshold

	engine, err := lsm.New(opts)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	value := make([]byte, *valueSize)
	for i := range value {
		value[i] = byte(rand.Intn(256))
	}

	fmt.Printf("Benchmark 1: Sequential Writes\n")
	start := time.Now()
	for i := 0; i < *writes; i++ {
		key := []byte(fmt.Sprintf("key-%012d", i))
		if _, err := engine.Put(key, value); err != nil {
			log.Fatalf("Failed to write: %v", err)
		}
		if (i+1)%10000 == 0 {
			fmt.Printf("  Written %d entries...\n", i+1)
		}
	}
	writeElapsed := time.Since(start)
	fmt.Printf("  %d writes in %v (%.0f ops/sec)\n\n",
		*writes, writeElapsed, float64(*writes)/writeElapsed.Seconds())

	fmt.Printf("Benchmark 2: Random Reads\n")
	start = time.Now()
	hits := 0
	for i := 0; i < *reads; i++ {
		key := []byte(fmt.Sprintf("key-%012d", rand.Intn(*writes)))
		res, err := engine.Get(key)
		if err != nil {
			log.Fatalf("Failed to read: %v", err)
		}
		if res.Found {
			hits++
		}
	}
	readElapsed := time.Since(start)
	fmt.Printf("  %d reads in %v (%.0f ops/sec), %d hits\n\n",
		*reads, readElapsed, float64(*reads)/readElapsed.Seconds(), hits)

	fmt.Printf("Benchmark 3: Deletes\n")
	start = time.Now()
	for i := 0; i < *deletes; i++ {
		key := []byte(fmt.Sprintf("key-%012d", rand.Intn(*writes)))
		if _, err := engine.Delete(key); err != nil {
			log.Fatalf("Failed to delete: %v", err)
		}
	}
	deleteElapsed := time.Since(start)
	fmt.Printf("  %d deletes in %v (%.0f ops/sec)\n\n",
		*deletes, deleteElapsed, float64(*deletes)/deleteElapsed.Seconds())

	printStats(engine.Stats())
}

func printStats(s lsm.StatsSnapshot) {
	fmt.Printf("Engine statistics:\n")
	fmt.Printf("  Flushes: %d\n", s.Flushes)
	fmt.Printf("  Compactions: %d\n", s.Compactions)
	fmt.Printf("  Write amplification: %.3f\n", s.WriteAmplification)
	fmt.Printf("  Duplicates removed: %d\n", s.DuplicatesRemoved)
	fmt.Printf("  Memtable: %d records, height %d\n", s.Memtable.Records, s.Memtable.Height)
	for _, l := range s.Levels {
		fmt.Printf("  L%d: %d tables, %d records, ~%d bytes\n", l.Level, l.Tables, l.Records, l.Bytes)
	}
	fmt.Printf("  Bloom: %d checks, %d saved\n", s.BloomChecks, s.BloomSaved)
	fmt.Printf("  Block cache hit rate: %.1f%%\n", s.CacheHitRate*100)
}
