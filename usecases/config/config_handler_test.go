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
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigFromYAML(t *testing.T) {
	os.Clearenv()
	logger, _ := test.NewNullLogger()
	path := writeConfigFile(t, "revindex.yaml", `
data_path: /srv/revindex
backend: btree
backend_param: 16
assembler:
  conserve_memory: true
  bin_words: 1024
  max_heap_memory_share: 0.4
sort:
  workers: 2
  progress_interval: 10s
bloom:
  false_positive_rate: 0.001
logging:
  format: json
`)

	config, err := LoadConfig(&Flags{ConfigFile: path}, logger)
	require.NoError(t, err)
	assert.Equal(t, "/srv/revindex", config.DataPath)
	assert.Equal(t, "btree", config.Backend)
	assert.Equal(t, 16, config.BackendParam)
	assert.True(t, config.Assembler.ConserveMemory)
	assert.Equal(t, uint64(1024), config.Assembler.BinWords)
	assert.Equal(t, 0.4, config.Assembler.MaxHeapMemoryShare)
	assert.Equal(t, 2, config.Sort.Workers)
	assert.Equal(t, 10*time.Second, config.Sort.ProgressInterval)
	assert.Equal(t, 0.001, config.Bloom.FalsePositiveRate)
	assert.Equal(t, "json", config.Logging.Format)

	// defaults
	assert.Equal(t, DefaultInlineSortThreshold, config.Sort.InlineThreshold)
	assert.Equal(t, DefaultLogLevel, config.Logging.Level)
}

func TestLoadConfigOrder(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()
	logger, _ := test.NewNullLogger()
	path := writeConfigFile(t, "revindex.json",
		`{"data_path":"/from/file","backend":"btree","sort":{"workers":1}}`)

	os.Setenv("REVINDEX_DATA_PATH", "/from/env")
	os.Setenv("REVINDEX_SORT_WORKERS", "3")

	config, err := LoadConfig(&Flags{ConfigFile: path, SortWorkers: 8}, logger)
	require.NoError(t, err)
	assert.Equal(t, "btree", config.Backend)
	assert.Equal(t, "/from/env", config.DataPath)
	assert.Equal(t, 8, config.Sort.Workers)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	os.Clearenv()
	logger, _ := test.NewNullLogger()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	config, err := LoadConfig(&Flags{}, logger)
	require.NoError(t, err)
	assert.Equal(t, DefaultDataPath, config.DataPath)
	assert.Equal(t, DefaultBackend, config.Backend)
	assert.Equal(t, DefaultBloomFalsePositiveRate, config.Bloom.FalsePositiveRate)
	assert.Equal(t, DefaultProgressInterval, config.Sort.ProgressInterval)

	_, err = LoadConfig(&Flags{ConfigFile: "missing.yaml"}, logger)
	assert.ErrorContains(t, err, "invalid config")
}

func TestParseConfigFileExtensions(t *testing.T) {
	_, err := parseConfigFile([]byte("backend: btree"), "revindex")
	assert.ErrorContains(t, err, "file ending")

	_, err = parseConfigFile([]byte("backend = 'btree'"), "revindex.toml")
	assert.ErrorContains(t, err, "unsupported config file extension")

	config, err := parseConfigFile([]byte("backend: btree"), "revindex.yml")
	require.NoError(t, err)
	assert.Equal(t, "btree", config.Backend)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		valid  bool
	}{
		{"empty", Config{}, true},
		{"unknown backend", Config{Backend: "lsm"}, false},
		{"negative param", Config{BackendParam: -1}, false},
		{"negative workers", Config{Sort: Sort{Workers: -2}}, false},
		{"rate too high", Config{Bloom: Bloom{FalsePositiveRate: 1.5}}, false},
		{"heap share too high", Config{Assembler: Assembler{MaxHeapMemoryShare: 1.5}}, false},
		{"heap share", Config{Assembler: Assembler{MaxHeapMemoryShare: 0.25}}, true},
		{"unknown level", Config{Logging: Logging{Level: "loud"}}, false},
		{"unknown format", Config{Logging: Logging{Format: "xml"}}, false},
		{"textfile without monitoring", Config{Monitoring: Monitoring{TextfilePath: "/tmp/m.prom"}}, false},
		{"textfile with monitoring", Config{Monitoring: Monitoring{Enabled: true, TextfilePath: "/tmp/m.prom"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
