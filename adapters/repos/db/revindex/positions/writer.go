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

// Package positions stores the per-occurrence flags and word positions of
// the reverse index in an append-only file.
//
// A record is laid out as
//
//	[uvarint payload length][flags u8][gamma coded positions]
//
// and is addressed by a key that carries the record's byte offset in its low
// 48 bits and, when it fits, the total record length in its high 16 bits.
package positions

import (
	"bufio"
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

const (
	offsetBits = 48
	offsetMask = 1<<offsetBits - 1
	maxSized   = 1<<(64-offsetBits) - 1
)

// makeKey packs offset and size. Records too large for the size field get
// size 0 and are read by their length prefix. 0 is a valid key: it is the
// key of an oversized first record.
func makeKey(offset, size uint64) uint64 {
	if size > maxSized {
		size = 0
	}
	return size<<offsetBits | offset
}

func splitKey(key uint64) (offset, size uint64) {
	return key & offsetMask, key >> offsetBits
}

// Writer appends records to a positions file. It is not safe for concurrent
// use.
type Writer struct {
	path   string
	file   *os.File
	w      *bufio.Writer
	offset uint64
	header [binary.MaxVarintLen64 + 1]byte
}

func NewWriter(path string) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "create positions file %q", path)
	}
	return &Writer{
		path: path,
		file: file,
		w:    bufio.NewWriterSize(file, 1<<20),
	}, nil
}

// Add appends a record and returns its key. positions must be ascending.
func (w *Writer) Add(flags byte, positions []uint32) (uint64, error) {
	if w.file == nil {
		return 0, errors.Errorf("positions file %q is closed", w.path)
	}

	coded, err := Encode(positions)
	if err != nil {
		return 0, err
	}

	payloadLen := uint64(1 + len(coded))
	n := binary.PutUvarint(w.header[:], payloadLen)
	w.header[n] = flags
	if _, err := w.w.Write(w.header[:n+1]); err != nil {
		return 0, errors.Wrapf(err, "write positions file %q", w.path)
	}
	if _, err := w.w.Write(coded); err != nil {
		return 0, errors.Wrapf(err, "write positions file %q", w.path)
	}

	if w.offset > offsetMask {
		return 0, errors.Errorf("positions file %q exceeds the addressable size", w.path)
	}
	key := makeKey(w.offset, uint64(n)+payloadLen)
	w.offset += uint64(n) + payloadLen
	return key, nil
}

// Size is the number of bytes written so far.
func (w *Writer) Size() uint64 {
	return w.offset
}

// Close flushes and fsyncs the file.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	file := w.file
	w.file = nil

	if err := w.w.Flush(); err != nil {
		file.Close()
		return errors.Wrapf(err, "flush positions file %q", w.path)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return errors.Wrapf(err, "fsync positions file %q", w.path)
	}
	return file.Close()
}
