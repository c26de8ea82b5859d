//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2026 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	entcfg "github.com/weaviate/revindex/entities/config"
)

// FromEnv takes a *Config as it will respect initial config that has been
// provided by other means (e.g. a config file) and will only extend those
// that are set
func FromEnv(config *Config) error {
	if v := os.Getenv("REVINDEX_DATA_PATH"); v != "" {
		config.DataPath = v
	}
	if v := os.Getenv("REVINDEX_BACKEND"); v != "" {
		config.Backend = v
	}
	if err := parseNonNegativeInt("REVINDEX_BACKEND_PARAM", func(val int) {
		config.BackendParam = val
	}); err != nil {
		return err
	}
	if entcfg.Enabled(os.Getenv("REVINDEX_AVOID_MMAP")) {
		config.AvoidMmap = true
	}

	if entcfg.Enabled(os.Getenv("REVINDEX_CONSERVE_MEMORY")) {
		config.Assembler.ConserveMemory = true
	}
	if err := parseUint64("REVINDEX_MMAP_THRESHOLD_BYTES", func(val uint64) {
		config.Assembler.MMapThresholdBytes = val
	}); err != nil {
		return err
	}
	if err := parseUint64("REVINDEX_FUNNEL_BIN_WORDS", func(val uint64) {
		config.Assembler.BinWords = val
	}); err != nil {
		return err
	}
	if err := parseNonNegativeInt("REVINDEX_FUNNEL_BUFFER_ENTRIES", func(val int) {
		config.Assembler.BufferEntries = val
	}); err != nil {
		return err
	}

	if v := os.Getenv("REVINDEX_MAX_HEAP_MEMORY_SHARE"); v != "" {
		share, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse REVINDEX_MAX_HEAP_MEMORY_SHARE as float: %w", err)
		}
		if share <= 0 || share > 1 {
			return fmt.Errorf("REVINDEX_MAX_HEAP_MEMORY_SHARE must be in (0, 1], got %v", share)
		}
		config.Assembler.MaxHeapMemoryShare = share
	}

	if err := parseNonNegativeInt("REVINDEX_SORT_INLINE_THRESHOLD", func(val int) {
		config.Sort.InlineThreshold = val
	}); err != nil {
		return err
	}
	if err := parseNonNegativeInt("REVINDEX_SORT_WORKERS", func(val int) {
		config.Sort.Workers = val
	}); err != nil {
		return err
	}
	if v := os.Getenv("REVINDEX_SORT_PROGRESS_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("parse REVINDEX_SORT_PROGRESS_INTERVAL as positive duration: %q", v)
		}
		config.Sort.ProgressInterval = d
	}

	if v := os.Getenv("REVINDEX_BLOOM_FALSE_POSITIVE_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse REVINDEX_BLOOM_FALSE_POSITIVE_RATE as float: %w", err)
		}
		if rate <= 0 || rate >= 1 {
			return fmt.Errorf("REVINDEX_BLOOM_FALSE_POSITIVE_RATE must be in (0, 1), got %v", rate)
		}
		config.Bloom.FalsePositiveRate = rate
	}

	if v := os.Getenv("REVINDEX_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("REVINDEX_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}

	if entcfg.Enabled(os.Getenv("REVINDEX_MONITORING_ENABLED")) {
		config.Monitoring.Enabled = true
	}
	if v := os.Getenv("REVINDEX_MONITORING_TEXTFILE"); v != "" {
		config.Monitoring.TextfilePath = v
	}

	return nil
}

func parseNonNegativeInt(envName string, cb func(val int)) error {
	v := os.Getenv(envName)
	if v == "" {
		return nil
	}
	asInt, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s as int: %w", envName, err)
	}
	if asInt < 0 {
		return fmt.Errorf("%s must not be negative, got %d", envName, asInt)
	}
	cb(asInt)
	return nil
}

func parseUint64(envName string, cb func(val uint64)) error {
	v := os.Getenv(envName)
	if v == "" {
		return nil
	}
	asUint, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s as uint64: %w", envName, err)
	}
	cb(asUint)
	return nil
}
