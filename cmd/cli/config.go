package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-kv/pkg/lsm"
)

// FileConfig mirrors the engine knobs in YAML form. Absent fields keep their
// defaults.
type FileConfig struct {
	MemtableThreshold    int     `yaml:"memtable_threshold"`
	MaxSkipListLevel     int     `yaml:"max_skip_list_level"`
	SkipListP            float64 `yaml:"skip_list_promotion_p"`
	SparseIndexStep      int     `yaml:"sstable_sparse_index_step"`
	BloomFPR             float64 `yaml:"bloom_filter_target_fpr"`
	CompactionThresholds []int   `yaml:"level_compaction_thresholds"`
	CompactionFallback   int     `yaml:"level_compaction_fallback"`
	BlockCacheCapacity   int     `yaml:"block_cache_capacity"`
}

// LoadConfig reads a YAML config file into engine options.
func LoadConfig(path string) (lsm.Options, error) {
	opts := lsm.DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return opts, fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.MemtableThreshold != 0 {
		opts.MemtableThreshold = fc.MemtableThreshold
	}
	if fc.MaxSkipListLevel != 0 {
		opts.MaxSkipListLevel = fc.MaxSkipListLevel
	}
	if fc.SkipListP != 0 {
		opts.SkipListP = fc.SkipListP
	}
	if fc.SparseIndexStep != 0 {
		opts.SparseIndexStep = fc.SparseIndexStep
	}
	if fc.BloomFPR != 0 {
		opts.BloomFPR = fc.BloomFPR
	}
	if fc.CompactionThresholds != nil {
		opts.CompactionThresholds = fc.CompactionThresholds
	}
	if fc.CompactionFallback != 0 {
		opts.CompactionThresholdFallback = fc.CompactionFallback
	}
	if fc.BlockCacheCapacity != 0 {
		opts.BlockCacheCapacity = fc.BlockCacheCapacity
	}

	return opts, opts.Validate()
}
