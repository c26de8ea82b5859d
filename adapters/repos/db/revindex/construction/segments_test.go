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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	entrev "github.com/weaviate/revindex/entities/revindex"
)

func TestSegmentsLayout(t *testing.T) {
	segments := NewSegments(map[uint64]uint64{
		51: 2,
		50: 1,
		99: 0,
		7:  3,
	})

	assert.Equal(t, []WordSegment{
		{TermID: 7, Start: 0, End: 48},
		{TermID: 50, Start: 48, End: 64},
		{TermID: 51, Start: 64, End: 96},
	}, segments.Segments())
	assert.Equal(t, uint64(96), segments.TotalSize())
	assert.Equal(t, uint64(6), segments.TotalRecords())

	seg, ok := segments.Lookup(51)
	require.True(t, ok)
	assert.Equal(t, uint64(2), seg.Records())

	_, ok = segments.Lookup(99)
	assert.False(t, ok, "terms without records get no segment")
}

func TestSegmentsCoverage(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	counts := map[uint64]uint64{}
	total := uint64(0)
	for i := 0; i < 500; i++ {
		count := uint64(r.Intn(20) + 1)
		counts[r.Uint64()] += count
		total += count
	}

	segments := NewSegments(counts)
	require.Equal(t, total*entrev.RecordSize, segments.TotalSize())

	expectedStart := uint64(0)
	var prevTerm uint64
	for i, seg := range segments.Segments() {
		if i > 0 {
			assert.Greater(t, seg.TermID, prevTerm)
		}
		assert.Equal(t, expectedStart, seg.Start)
		assert.Zero(t, (seg.End-seg.Start)%entrev.RecordSize)
		assert.Equal(t, counts[seg.TermID], seg.Records())
		expectedStart = seg.End
		prevTerm = seg.TermID
	}
	assert.Equal(t, segments.TotalSize(), expectedStart)
}

func TestSegmentsNext(t *testing.T) {
	segments := NewSegments(map[uint64]uint64{1: 2, 2: 1})

	offset, err := segments.Next(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(32), offset)

	offset, err = segments.Next(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), offset)

	require.Error(t, segments.Filled())

	offset, err = segments.Next(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), offset)
	require.NoError(t, segments.Filled())

	_, err = segments.Next(1)
	assert.Error(t, err, "segment is full")

	_, err = segments.Next(3)
	assert.Error(t, err, "term was never counted")
}
