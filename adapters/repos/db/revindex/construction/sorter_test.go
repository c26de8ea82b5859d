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

package construction

import (
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/array"
	entrev "github.com/weaviate/revindex/entities/revindex"
	"github.com/weaviate/revindex/usecases/monitoring"
)

// shuffledRecords lays out one segment per count with random document ids.
func shuffledRecords(counts []uint64) (array.LongArray, []WordSegment) {
	r := rand.New(rand.NewSource(11))
	m := map[uint64]uint64{}
	for i, c := range counts {
		m[uint64(i)] = c
	}
	segments := NewSegments(m)

	records := array.Allocate(segments.TotalSize() / 8)
	for i := uint64(0); i < records.Size(); i += 2 {
		records.Set(i, r.Uint64())
		records.Set(i+1, i)
	}
	return records, segments.Segments()
}

func TestSegmentSorter(t *testing.T) {
	logger, _ := test.NewNullLogger()
	metrics := monitoring.NewMetrics(prometheus.NewPedanticRegistry())

	records, segments := shuffledRecords([]uint64{1, 5, 9, 10, 11, 300, 2, 64})
	sorter := &segmentSorter{
		logger:           logger,
		metrics:          metrics,
		inlineThreshold:  10,
		workers:          3,
		progressInterval: time.Millisecond,
	}
	require.NoError(t, sorter.sort(records, segments))

	for _, seg := range segments {
		view := records.Range(seg.Start/8, seg.End/8)
		assert.True(t, array.IsSortedN(view, entrev.RecordWords), "segment of term %d", seg.TermID)
		for i := uint64(0); i < view.Size(); i += 2 {
			// the payload word still belongs to its document id
			assert.Zero(t, view.Get(i+1)%2)
		}
	}

	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.SegmentsSorted.WithLabelValues(monitoring.SortInline)))
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.SegmentsSorted.WithLabelValues(monitoring.SortPooled)))
}

func TestSegmentSorterKeepsRecordsTogether(t *testing.T) {
	logger, _ := test.NewNullLogger()
	records, segments := shuffledRecords([]uint64{2000})
	before := map[uint64]uint64{}
	for i := uint64(0); i < records.Size(); i += 2 {
		before[records.Get(i)] = records.Get(i + 1)
	}

	sorter := &segmentSorter{logger: logger, inlineThreshold: 1, workers: 2, progressInterval: time.Second}
	require.NoError(t, sorter.sort(records, segments))

	for i := uint64(0); i < records.Size(); i += 2 {
		assert.Equal(t, before[records.Get(i)], records.Get(i+1))
	}
}

func TestSegmentSorterPropagatesPanics(t *testing.T) {
	logger, hook := test.NewNullLogger()
	records, segments := shuffledRecords([]uint64{3, 50, 50})

	sorter := &segmentSorter{
		logger:           logger,
		inlineThreshold:  10,
		workers:          2,
		progressInterval: time.Second,
		sortFn: func(a array.LongArray, n uint64) {
			if a.Size() > 20 {
				panic("sort failed")
			}
			array.QuickSortN(a, n)
		},
	}
	err := sorter.sort(records, segments)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sort failed")

	var panics int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			panics++
		}
	}
	assert.GreaterOrEqual(t, panics, 1)
}

func TestSegmentSorterLogsProgress(t *testing.T) {
	logger, hook := test.NewNullLogger()
	records, segments := shuffledRecords([]uint64{100})

	release := make(chan struct{})
	sorter := &segmentSorter{
		logger:           logger,
		inlineThreshold:  1,
		workers:          1,
		progressInterval: time.Millisecond,
		sortFn: func(a array.LongArray, n uint64) {
			<-release
			array.QuickSortN(a, n)
		},
	}

	go func() {
		assert.Eventually(t, func() bool {
			for _, entry := range hook.AllEntries() {
				if entry.Message == "waiting for word segments to be sorted" {
					return true
				}
			}
			return false
		}, 5*time.Second, time.Millisecond)
		close(release)
	}()

	require.NoError(t, sorter.sort(records, segments))
}
