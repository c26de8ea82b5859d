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
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnvironmentSortWorkers(t *testing.T) {
	factors := []struct {
		name        string
		workers     []string
		expected    int
		expectedErr bool
	}{
		{"Valid", []string{"4"}, 4, false},
		{"zero", []string{"0"}, 0, false},
		{"not given", []string{}, 0, false},
		{"negative", []string{"-1"}, -1, true},
		{"not parsable", []string{"I'm not a number"}, -1, true},
	}
	for _, tt := range factors {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if len(tt.workers) == 1 {
				os.Setenv("REVINDEX_SORT_WORKERS", tt.workers[0])
			}
			conf := Config{}
			err := FromEnv(&conf)

			if tt.expectedErr {
				require.NotNil(t, err)
			} else {
				require.Nil(t, err)
				require.Equal(t, tt.expected, conf.Sort.Workers)
			}
		})
	}
}

func TestEnvironmentBloomFalsePositiveRate(t *testing.T) {
	factors := []struct {
		name        string
		rate        []string
		expected    float64
		expectedErr bool
	}{
		{"Valid", []string{"0.05"}, 0.05, false},
		{"not given", []string{}, 0, false},
		{"zero", []string{"0"}, -1, true},
		{"one", []string{"1"}, -1, true},
		{"not parsable", []string{"often"}, -1, true},
	}
	for _, tt := range factors {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if len(tt.rate) == 1 {
				os.Setenv("REVINDEX_BLOOM_FALSE_POSITIVE_RATE", tt.rate[0])
			}
			conf := Config{}
			err := FromEnv(&conf)

			if tt.expectedErr {
				require.NotNil(t, err)
			} else {
				require.Nil(t, err)
				require.Equal(t, tt.expected, conf.Bloom.FalsePositiveRate)
			}
		})
	}
}

func TestEnvironmentMaxHeapMemoryShare(t *testing.T) {
	factors := []struct {
		name        string
		share       []string
		expected    float64
		expectedErr bool
	}{
		{"Valid", []string{"0.25"}, 0.25, false},
		{"all of it", []string{"1"}, 1, false},
		{"not given", []string{}, 0, false},
		{"zero", []string{"0"}, -1, true},
		{"too high", []string{"1.5"}, -1, true},
		{"not parsable", []string{"half"}, -1, true},
	}
	for _, tt := range factors {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if len(tt.share) == 1 {
				os.Setenv("REVINDEX_MAX_HEAP_MEMORY_SHARE", tt.share[0])
			}
			conf := Config{}
			err := FromEnv(&conf)

			if tt.expectedErr {
				require.NotNil(t, err)
			} else {
				require.Nil(t, err)
				require.Equal(t, tt.expected, conf.Assembler.MaxHeapMemoryShare)
			}
		})
	}
}

func TestEnvironmentProgressInterval(t *testing.T) {
	factors := []struct {
		name        string
		interval    []string
		expected    time.Duration
		expectedErr bool
	}{
		{"Valid", []string{"5s"}, 5 * time.Second, false},
		{"not given", []string{}, 0, false},
		{"zero", []string{"0s"}, -1, true},
		{"not parsable", []string{"5"}, -1, true},
	}
	for _, tt := range factors {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if len(tt.interval) == 1 {
				os.Setenv("REVINDEX_SORT_PROGRESS_INTERVAL", tt.interval[0])
			}
			conf := Config{}
			err := FromEnv(&conf)

			if tt.expectedErr {
				require.NotNil(t, err)
			} else {
				require.Nil(t, err)
				require.Equal(t, tt.expected, conf.Sort.ProgressInterval)
			}
		})
	}
}

func TestEnvironmentSwitchesAndStrings(t *testing.T) {
	os.Clearenv()
	os.Setenv("REVINDEX_DATA_PATH", "/var/lib/revindex")
	os.Setenv("REVINDEX_BACKEND", "btree")
	os.Setenv("REVINDEX_BACKEND_PARAM", "32")
	os.Setenv("REVINDEX_AVOID_MMAP", "true")
	os.Setenv("REVINDEX_CONSERVE_MEMORY", "on")
	os.Setenv("REVINDEX_MMAP_THRESHOLD_BYTES", "1048576")
	os.Setenv("REVINDEX_FUNNEL_BIN_WORDS", "4096")
	os.Setenv("REVINDEX_FUNNEL_BUFFER_ENTRIES", "64")
	os.Setenv("REVINDEX_LOG_LEVEL", "debug")
	os.Setenv("REVINDEX_LOG_FORMAT", "json")
	os.Setenv("REVINDEX_MONITORING_ENABLED", "1")
	os.Setenv("REVINDEX_MONITORING_TEXTFILE", "/tmp/revindex.prom")
	defer os.Clearenv()

	conf := Config{}
	require.Nil(t, FromEnv(&conf))
	require.Equal(t, Config{
		DataPath:     "/var/lib/revindex",
		Backend:      "btree",
		BackendParam: 32,
		AvoidMmap:    true,
		Assembler: Assembler{
			MMapThresholdBytes: 1 << 20,
			ConserveMemory:     true,
			BinWords:           4096,
			BufferEntries:      64,
		},
		Logging:    Logging{Level: "debug", Format: "json"},
		Monitoring: Monitoring{Enabled: true, TextfilePath: "/tmp/revindex.prom"},
	}, conf)
}
