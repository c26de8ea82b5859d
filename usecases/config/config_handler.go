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
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when no config file is given. It is optional.
const DefaultConfigFile string = "./revindex.conf.yaml"

const (
	DefaultDataPath               = "./data"
	DefaultBackend                = "skiplist"
	DefaultBloomFalsePositiveRate = 0.01
	DefaultInlineSortThreshold    = 1024
	DefaultProgressInterval       = 30 * time.Second
	DefaultLogLevel               = "info"
	DefaultLogFormat              = "text"
)

// Flags are input options shared by all commands.
type Flags struct {
	ConfigFile string `long:"config-file" description:"path to a yaml or json config file (default: ./revindex.conf.yaml)"`

	DataPath       string `long:"data-path" description:"root directory holding the partitions and the catalog"`
	Backend        string `long:"backend" description:"ordered index used for terms and posting lists" choice:"btree" choice:"skiplist"`
	BackendParam   int    `long:"backend-param" description:"b-tree fanout or skip-list block size, 0 selects the default"`
	AvoidMmap      bool   `long:"avoid-mmap" description:"read index files with pread instead of mapping them"`
	ConserveMemory bool   `long:"conserve-memory" description:"always assemble the intermediate record array through the temp-file funnel"`
	SortWorkers    int    `long:"sort-workers" description:"number of goroutines sorting word segments, defaults to GOMAXPROCS"`
	LogLevel       string `long:"log-level" description:"one of panic, fatal, error, warn, info, debug, trace"`
	LogFormat      string `long:"log-format" description:"log output format" choice:"text" choice:"json"`
}

// Config outline of the config file
type Config struct {
	DataPath     string     `json:"data_path" yaml:"data_path"`
	Backend      string     `json:"backend" yaml:"backend"`
	BackendParam int        `json:"backend_param" yaml:"backend_param"`
	AvoidMmap    bool       `json:"avoid_mmap" yaml:"avoid_mmap"`
	Assembler    Assembler  `json:"assembler" yaml:"assembler"`
	Sort         Sort       `json:"sort" yaml:"sort"`
	Bloom        Bloom      `json:"bloom" yaml:"bloom"`
	Logging      Logging    `json:"logging" yaml:"logging"`
	Monitoring   Monitoring `json:"monitoring" yaml:"monitoring"`
}

// Assembler configures how the intermediate record array (records.dat) of a
// build is assembled. Zero values are replaced by the assembler's own
// defaults.
type Assembler struct {
	MMapThresholdBytes uint64  `json:"mmap_threshold_bytes" yaml:"mmap_threshold_bytes"`
	ConserveMemory     bool    `json:"conserve_memory" yaml:"conserve_memory"`
	BinWords           uint64  `json:"bin_words" yaml:"bin_words"`
	BufferEntries      int     `json:"buffer_entries" yaml:"buffer_entries"`
	MaxHeapMemoryShare float64 `json:"max_heap_memory_share" yaml:"max_heap_memory_share"`
}

type Sort struct {
	InlineThreshold  int           `json:"inline_threshold" yaml:"inline_threshold"`
	Workers          int           `json:"workers" yaml:"workers"`
	ProgressInterval time.Duration `json:"progress_interval" yaml:"progress_interval"`
}

type Bloom struct {
	FalsePositiveRate float64 `json:"false_positive_rate" yaml:"false_positive_rate"`
}

type Logging struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Monitoring controls the prometheus metrics. A command writes its metrics to
// TextfilePath on exit, in the format read by the node exporter's textfile
// collector.
type Monitoring struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	TextfilePath string `json:"textfile_path" yaml:"textfile_path"`
}

// Validate fills in defaults and rejects values no command can work with.
func (c *Config) Validate() error {
	if c.DataPath == "" {
		c.DataPath = DefaultDataPath
	}
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	switch c.Backend {
	case "btree", "b-tree", "skiplist", "skip-list":
	default:
		return configErr(fmt.Errorf("unsupported backend %q, use btree or skiplist", c.Backend))
	}
	if c.BackendParam < 0 {
		return configErr(fmt.Errorf("backend_param must not be negative, got %d", c.BackendParam))
	}

	if c.Sort.InlineThreshold == 0 {
		c.Sort.InlineThreshold = DefaultInlineSortThreshold
	}
	if c.Sort.InlineThreshold < 0 || c.Sort.Workers < 0 || c.Assembler.BufferEntries < 0 {
		return configErr(errors.New("sort and assembler settings must not be negative"))
	}
	if c.Sort.ProgressInterval <= 0 {
		c.Sort.ProgressInterval = DefaultProgressInterval
	}

	if c.Assembler.MaxHeapMemoryShare < 0 || c.Assembler.MaxHeapMemoryShare > 1 {
		return configErr(fmt.Errorf("assembler max_heap_memory_share must be in [0, 1], got %v",
			c.Assembler.MaxHeapMemoryShare))
	}

	if c.Bloom.FalsePositiveRate == 0 {
		c.Bloom.FalsePositiveRate = DefaultBloomFalsePositiveRate
	}
	if c.Bloom.FalsePositiveRate <= 0 || c.Bloom.FalsePositiveRate >= 1 {
		return configErr(fmt.Errorf("bloom false_positive_rate must be in (0, 1), got %v",
			c.Bloom.FalsePositiveRate))
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return configErr(err)
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return configErr(fmt.Errorf("unsupported log format %q, use text or json", c.Logging.Format))
	}

	if c.Monitoring.TextfilePath != "" && !c.Monitoring.Enabled {
		return configErr(errors.New("monitoring textfile_path is set but monitoring is disabled"))
	}
	return nil
}

// LoadConfig from config locations. The load order for configuration values
// is the following
// 1. Config file
// 2. Environment variables
// 3. Command line flags
// A value set in a later location overrides the earlier ones.
func LoadConfig(flags *Flags, logger logrus.FieldLogger) (Config, error) {
	var config Config

	configFileName := flags.ConfigFile
	explicit := configFileName != ""
	if !explicit {
		configFileName = DefaultConfigFile
	}

	file, err := os.ReadFile(configFileName)
	if err != nil && (explicit || !os.IsNotExist(err)) {
		return config, configErr(errors.Wrapf(err, "read config file %q", configFileName))
	}
	if len(file) > 0 {
		logger.WithField("action", "config_load").WithField("config_file_path", configFileName).
			Debug("loading config file")
		config, err = parseConfigFile(file, configFileName)
		if err != nil {
			return config, configErr(err)
		}
	}

	if err := FromEnv(&config); err != nil {
		return config, configErr(err)
	}

	fromFlags(&config, flags)

	return config, config.Validate()
}

func parseConfigFile(file []byte, name string) (Config, error) {
	var config Config

	m := regexp.MustCompile(`.*\.(\w+)$`).FindStringSubmatch(name)
	if len(m) < 2 {
		return config, fmt.Errorf("config file does not have a file ending, got '%s'", name)
	}

	switch m[1] {
	case "json":
		err := json.Unmarshal(file, &config)
		if err != nil {
			return config, fmt.Errorf("error unmarshalling the json config file: %w", err)
		}
	case "yaml", "yml":
		err := yaml.Unmarshal(file, &config)
		if err != nil {
			return config, fmt.Errorf("error unmarshalling the yaml config file: %w", err)
		}
	default:
		return config, fmt.Errorf("unsupported config file extension '%s', use .yaml or .json", m[1])
	}

	return config, nil
}

// fromFlags overrides values in the config with the flags that were set
func fromFlags(config *Config, flags *Flags) {
	if flags.DataPath != "" {
		config.DataPath = flags.DataPath
	}
	if flags.Backend != "" {
		config.Backend = flags.Backend
	}
	if flags.BackendParam > 0 {
		config.BackendParam = flags.BackendParam
	}
	if flags.AvoidMmap {
		config.AvoidMmap = true
	}
	if flags.ConserveMemory {
		config.Assembler.ConserveMemory = true
	}
	if flags.SortWorkers > 0 {
		config.Sort.Workers = flags.SortWorkers
	}
	if flags.LogLevel != "" {
		config.Logging.Level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		config.Logging.Format = flags.LogFormat
	}
}

func configErr(err error) error {
	return fmt.Errorf("invalid config: %w", err)
}
