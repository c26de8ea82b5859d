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

// Package revindex contains the types shared between construction and
// serving of the reverse index.
package revindex

import (
	"errors"
)

var (
	// ErrClosed is returned by every reader operation after Close.
	ErrClosed = errors.New("reverse index is closed")

	// ErrCorruptBlock is returned when an on-disk structure cannot be parsed.
	ErrCorruptBlock = errors.New("corrupt index block")
)

// RecordWords is the number of 64-bit words of a document record
// (document id, positions key).
const RecordWords = 2

// RecordSize is the size of a document record in bytes.
const RecordSize = RecordWords * 8

// TermOccurrence describes every occurrence of one term inside one document.
type TermOccurrence struct {
	TermID    uint64
	Flags     byte
	Positions []uint32
	// Count is the occurrence count tallied by the keyword extractor. Zero
	// means unknown.
	Count uint32
}

type Document struct {
	DocID uint64
	Terms []TermOccurrence
}

// DocumentSource yields the documents of a batch. ForEach must be restartable
// and yield the same documents in the same order on every call, as the
// construction reads the batch twice.
type DocumentSource interface {
	ForEach(fn func(doc Document) error) error
}

// SliceSource is an in-memory DocumentSource.
type SliceSource []Document

func (s SliceSource) ForEach(fn func(doc Document) error) error {
	for _, doc := range s {
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

// TermData is the decoded payload of a (term, document) pair.
type TermData struct {
	DocID     uint64
	Flags     byte
	Positions []uint32
}

// HasFlag reports whether all bits of flag are set.
func (d *TermData) HasFlag(flag byte) bool {
	return d.Flags&flag == flag
}
