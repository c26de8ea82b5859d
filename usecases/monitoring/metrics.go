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

package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "revindex"

// Sort modes of a word segment.
const (
	SortInline = "inline"
	SortPooled = "pooled"
)

// Lookup results.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
	// ResultFiltered is a miss answered by the bloom filter alone
	ResultFiltered = "filtered"
	ResultError    = "error"
)

// Metrics holds the collectors of index construction and lookups. All
// methods accept a nil receiver and then do nothing.
type Metrics struct {
	BuildPhaseDuration  *prometheus.HistogramVec
	RecordsScattered    prometheus.Counter
	SegmentsSorted      *prometheus.CounterVec
	BytesWritten        *prometheus.CounterVec
	PartitionsPublished prometheus.Counter
	Lookups             *prometheus.CounterVec
	LookupDuration      *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		BuildPhaseDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_phase_duration_seconds",
			Help:      "Duration of the phases of a reverse index build",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
		}, []string{"phase"}),
		RecordsScattered: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_scattered_total",
			Help:      "Document records placed into their word segment",
		}),
		SegmentsSorted: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_sorted_total",
			Help:      "Word segments sorted by document id, by sort mode",
		}, []string{"mode"}),
		BytesWritten: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Bytes written to index files",
		}, []string{"file"}),
		PartitionsPublished: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partitions_published_total",
			Help:      "Index partitions built and published",
		}),
		Lookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Reverse index lookups by operation and result",
		}, []string{"operation", "result"}),
		LookupDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Duration of reverse index lookups",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"operation"}),
	}
}

// NewNoopMetrics returns metrics that are never exposed.
func NewNoopMetrics() *Metrics {
	return NewMetrics(NewNoopRegistry())
}

func (m *Metrics) ObserveBuildPhase(phase string, started time.Time) {
	if m == nil {
		return
	}

	m.BuildPhaseDuration.WithLabelValues(phase).Observe(time.Since(started).Seconds())
}

func (m *Metrics) AddScattered(records int) {
	if m == nil {
		return
	}

	m.RecordsScattered.Add(float64(records))
}

func (m *Metrics) SortedSegment(mode string) {
	if m == nil {
		return
	}

	m.SegmentsSorted.WithLabelValues(mode).Inc()
}

// WrittenBytes returns a callback that counts bytes written to file.
func (m *Metrics) WrittenBytes(file string) func(int64) {
	if m == nil {
		return nil
	}

	counter := m.BytesWritten.WithLabelValues(file)
	return func(n int64) {
		counter.Add(float64(n))
	}
}

func (m *Metrics) PublishedPartition() {
	if m == nil {
		return
	}

	m.PartitionsPublished.Inc()
}

func (m *Metrics) Lookup(operation, result string, started time.Time) {
	if m == nil {
		return
	}

	m.Lookups.WithLabelValues(operation, result).Inc()
	m.LookupDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
