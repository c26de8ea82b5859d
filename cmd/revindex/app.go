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

package main

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/revindex/adapters/repos/db/revindex"
	"github.com/weaviate/revindex/adapters/repos/db/revindex/construction"
	"github.com/weaviate/revindex/adapters/repos/db/revindex/ordered"
	"github.com/weaviate/revindex/adapters/repos/db/revindex/randomwrite"
	"github.com/weaviate/revindex/usecases/config"
	"github.com/weaviate/revindex/usecases/monitoring"
)

// appState is what every command works on.
type appState struct {
	config   config.Config
	logger   *logrus.Logger
	registry *prometheus.Registry
	metrics  *monitoring.Metrics
	index    *revindex.Index
}

func makeAppState(flags *config.Flags) (*appState, error) {
	// the config is loaded with a throwaway logger, the configured one
	// depends on it
	bootLogger := logrus.New()
	cfg, err := config.LoadConfig(flags, bootLogger)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	state := &appState{config: cfg, logger: logger}
	if cfg.Monitoring.Enabled {
		state.registry = prometheus.NewRegistry()
		state.metrics = monitoring.NewMetrics(state.registry)
	} else {
		state.metrics = monitoring.NewNoopMetrics()
	}

	indexCfg, err := indexConfig(cfg)
	if err != nil {
		return nil, err
	}
	state.index, err = revindex.NewIndex(cfg.DataPath, indexCfg, logger, state.metrics)
	if err != nil {
		return nil, err
	}
	return state, nil
}

func indexConfig(cfg config.Config) (revindex.IndexConfig, error) {
	kind, err := ordered.ParseKind(cfg.Backend)
	if err != nil {
		return revindex.IndexConfig{}, err
	}
	backend, err := ordered.NewBackend(kind, cfg.BackendParam)
	if err != nil {
		return revindex.IndexConfig{}, err
	}

	return revindex.IndexConfig{
		Build: construction.BuilderConfig{
			Backend: backend,
			Assembler: randomwrite.Options{
				MMapThresholdBytes: cfg.Assembler.MMapThresholdBytes,
				ConserveMemory:     cfg.Assembler.ConserveMemory,
				BinWords:           cfg.Assembler.BinWords,
				BufferEntries:      cfg.Assembler.BufferEntries,
				MaxHeapMemoryShare: cfg.Assembler.MaxHeapMemoryShare,
			},
			InlineSortThreshold: cfg.Sort.InlineThreshold,
			SortWorkers:         cfg.Sort.Workers,
			ProgressInterval:    cfg.Sort.ProgressInterval,
		},
		BloomFalsePositiveRate: cfg.Bloom.FalsePositiveRate,
		Reader:                 revindex.ReaderOptions{AvoidMmap: cfg.AvoidMmap},
	}, nil
}

// close releases the index and writes the collected metrics.
func (s *appState) close() error {
	var result *multierror.Error
	if err := s.index.Close(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "close index"))
	}
	if s.registry != nil && s.config.Monitoring.TextfilePath != "" {
		if err := prometheus.WriteToTextfile(s.config.Monitoring.TextfilePath, s.registry); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "write metrics"))
		}
	}
	return result.ErrorOrNil()
}
