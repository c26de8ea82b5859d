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
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/array"
	enterrors "github.com/weaviate/revindex/entities/errors"
	entrev "github.com/weaviate/revindex/entities/revindex"
	"github.com/weaviate/revindex/usecases/monitoring"
)

// segmentSorter orders the records of every word segment by document id.
// Small segments are sorted by the calling goroutine, the rest by a bounded
// group of workers. There is no way to cancel a running sort.
type segmentSorter struct {
	logger           logrus.FieldLogger
	metrics          *monitoring.Metrics
	inlineThreshold  uint64
	workers          int
	progressInterval time.Duration

	// sortFn is replaced in tests
	sortFn func(a array.LongArray, n uint64)
}

func (s *segmentSorter) sort(records array.LongArray, segments []WordSegment) error {
	sortFn := s.sortFn
	if sortFn == nil {
		sortFn = array.QuickSortN
	}

	var pooled, pooledDone atomic.Int64
	stop := make(chan struct{})
	enterrors.GoWrapper(func() {
		ticker := time.NewTicker(s.progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.logger.WithFields(logrus.Fields{
					"sorted":    pooledDone.Load(),
					"scheduled": pooled.Load(),
				}).Info("waiting for word segments to be sorted")
			}
		}
	}, s.logger)
	defer close(stop)

	eg := enterrors.NewErrorGroupWrapper(s.logger)
	eg.SetLimit(s.workers)
	for _, seg := range segments {
		view := records.Range(seg.Start/8, seg.End/8)
		if seg.Records() < s.inlineThreshold {
			sortFn(view, entrev.RecordWords)
			s.metrics.SortedSegment(monitoring.SortInline)
			continue
		}

		pooled.Add(1)
		termID := seg.TermID
		eg.Go(func() error {
			sortFn(view, entrev.RecordWords)
			pooledDone.Add(1)
			s.metrics.SortedSegment(monitoring.SortPooled)
			return nil
		}, termID)
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"segments": len(segments),
		"pooled":   pooled.Load(),
	}).Debug("sorted word segments")
	return nil
}
