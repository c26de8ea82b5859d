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
	"slices"

	"github.com/pkg/errors"

	entrev "github.com/weaviate/revindex/entities/revindex"
)

// WordSegment is the byte range [Start, End) of the record array holding the
// document records of one term.
type WordSegment struct {
	TermID uint64
	Start  uint64
	End    uint64
}

func (s WordSegment) Records() uint64 {
	return (s.End - s.Start) / entrev.RecordSize
}

// Segments lays out one word segment per term, in ascending term id order,
// back to back over a flat record array. It also hands out the next free
// record of every segment while the records are scattered.
type Segments struct {
	segments []WordSegment
	index    map[uint64]int
	cursors  []uint64
	total    uint64
}

// NewSegments creates the layout for the number of records of every term.
// Terms with a count of zero get no segment.
func NewSegments(counts map[uint64]uint64) *Segments {
	termIDs := make([]uint64, 0, len(counts))
	for termID, count := range counts {
		if count > 0 {
			termIDs = append(termIDs, termID)
		}
	}
	slices.Sort(termIDs)

	s := &Segments{
		segments: make([]WordSegment, len(termIDs)),
		index:    make(map[uint64]int, len(termIDs)),
		cursors:  make([]uint64, len(termIDs)),
	}
	offset := uint64(0)
	for i, termID := range termIDs {
		end := offset + counts[termID]*entrev.RecordSize
		s.segments[i] = WordSegment{TermID: termID, Start: offset, End: end}
		s.index[termID] = i
		s.cursors[i] = offset
		offset = end
	}
	s.total = offset
	return s
}

// TotalSize is the size of the record array in bytes.
func (s *Segments) TotalSize() uint64 {
	return s.total
}

func (s *Segments) TotalRecords() uint64 {
	return s.total / entrev.RecordSize
}

func (s *Segments) Segments() []WordSegment {
	return s.segments
}

func (s *Segments) Lookup(termID uint64) (WordSegment, bool) {
	i, ok := s.index[termID]
	if !ok {
		return WordSegment{}, false
	}
	return s.segments[i], true
}

// Next returns the byte offset of the next free record of the term's segment
// and advances past it.
func (s *Segments) Next(termID uint64) (uint64, error) {
	i, ok := s.index[termID]
	if !ok {
		return 0, errors.Errorf("term %d was not counted", termID)
	}
	offset := s.cursors[i]
	if offset >= s.segments[i].End {
		return 0, errors.Errorf("segment of term %d is full after %d records",
			termID, s.segments[i].Records())
	}
	s.cursors[i] = offset + entrev.RecordSize
	return offset, nil
}

// Filled reports whether every segment received exactly its counted records.
func (s *Segments) Filled() error {
	for i, seg := range s.segments {
		if s.cursors[i] != seg.End {
			return errors.Errorf("segment of term %d received %d of %d records", seg.TermID,
				(s.cursors[i]-seg.Start)/entrev.RecordSize, seg.Records())
		}
	}
	return nil
}
