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

// Package ordered turns sorted arrays of (key, value) word pairs into
// immutable on-disk search structures and reads them back. Two layouts are
// available, a static B+tree and a block skip list. Both start with the same
// header, so a reader only needs the offset of a block to open it.
package ordered

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/array"
	"github.com/weaviate/revindex/adapters/repos/db/revindex/contentReader"
	entrev "github.com/weaviate/revindex/entities/revindex"
)

// Absent is the root offset of an empty range. Nothing is written for it.
const Absent int64 = -1

const absentPtr = ^uint64(0)

const (
	entryWords = 2
	entrySize  = entryWords * 8
	headerSize = 32
)

const (
	magicBTree    uint32 = 'R' | 'B'<<8 | 'T'<<16 | '1'<<24
	magicSkipList uint32 = 'R' | 'S'<<8 | 'L'<<16 | '1'<<24
)

type Kind uint8

const (
	KindBTree Kind = iota
	KindSkipList
)

func (k Kind) String() string {
	switch k {
	case KindBTree:
		return "btree"
	case KindSkipList:
		return "skiplist"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ParseKind maps a configured backend name to its Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "btree", "b-tree":
		return KindBTree, nil
	case "skiplist", "skip-list":
		return KindSkipList, nil
	default:
		return 0, errors.Errorf("unknown index backend %q, expected btree or skiplist", name)
	}
}

// Backend bulk-builds one search structure per call.
type Backend interface {
	Kind() Kind
	// Transform writes the structure for data, which holds (key, value)
	// pairs sorted ascending by key, and returns the offset of its header.
	// An empty data array returns Absent without writing anything.
	Transform(w *BlockWriter, data array.LongArray) (int64, error)
}

// NewBackend returns the backend of the given kind. param is the fanout of a
// B-tree or the block size of a skip list; 0 selects the default.
func NewBackend(kind Kind, param int) (Backend, error) {
	if param < 0 {
		return nil, errors.Errorf("invalid %s parameter %d", kind, param)
	}
	switch kind {
	case KindBTree:
		if param == 0 {
			param = DefaultFanout
		}
		if param < 2 {
			return nil, errors.Errorf("btree fanout must be at least 2, got %d", param)
		}
		return &BTree{fanout: uint64(param)}, nil
	case KindSkipList:
		if param == 0 {
			param = DefaultBlockSize
		}
		return &SkipList{blockSize: uint64(param)}, nil
	default:
		return nil, errors.Errorf("unknown backend kind %s", kind)
	}
}

// Index is an opened search structure.
type Index interface {
	NumEntries() uint64
	// Get returns the value stored under key. A missing key is not an
	// error.
	Get(key uint64) (value uint64, ok bool, err error)
	// Iterator walks all entries in ascending key order.
	Iterator() Iterator
}

type Iterator interface {
	Next() (key, value uint64, ok bool)
	// Err is the read error that ended the iteration early, if any.
	Err() error
}

type header struct {
	magic      uint32
	entryWords uint32
	numEntries uint64
	param      uint32
	levels     uint32
}

func (h header) marshal(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.entryWords)
	binary.LittleEndian.PutUint64(buf[8:16], h.numEntries)
	binary.LittleEndian.PutUint32(buf[16:20], h.param)
	binary.LittleEndian.PutUint32(buf[20:24], h.levels)
	binary.LittleEndian.PutUint64(buf[24:32], 0)
}

func readHeader(r contentReader.ContentReader, offset uint64) (header, error) {
	buf, _, err := r.ReadRange(offset, headerSize, make([]byte, headerSize))
	if err != nil {
		return header{}, errors.Wrapf(err, "read block header at %d", offset)
	}
	h := header{
		magic:      binary.LittleEndian.Uint32(buf[0:4]),
		entryWords: binary.LittleEndian.Uint32(buf[4:8]),
		numEntries: binary.LittleEndian.Uint64(buf[8:16]),
		param:      binary.LittleEndian.Uint32(buf[16:20]),
		levels:     binary.LittleEndian.Uint32(buf[20:24]),
	}
	if h.entryWords != entryWords {
		return header{}, errors.Wrapf(entrev.ErrCorruptBlock,
			"block at %d has %d words per entry", offset, h.entryWords)
	}
	if h.numEntries == 0 || h.param == 0 {
		return header{}, errors.Wrapf(entrev.ErrCorruptBlock,
			"block at %d has %d entries and parameter %d", offset, h.numEntries, h.param)
	}
	return h, nil
}

// Open reads the header at offset and returns the matching index.
func Open(r contentReader.ContentReader, offset int64) (Index, error) {
	if offset < 0 {
		return nil, errors.Errorf("cannot open block at offset %d", offset)
	}
	h, err := readHeader(r, uint64(offset))
	if err != nil {
		return nil, err
	}

	switch h.magic {
	case magicBTree:
		return openBTree(r, uint64(offset), h)
	case magicSkipList:
		return openSkipList(r, uint64(offset), h)
	default:
		return nil, errors.Wrapf(entrev.ErrCorruptBlock,
			"unknown block magic %#x at offset %d", h.magic, offset)
	}
}

func checkPairs(data array.LongArray) (uint64, error) {
	if data.Size()%entryWords != 0 {
		return 0, errors.Errorf("array of %d words does not hold (key, value) pairs", data.Size())
	}
	return data.Size() / entryWords, nil
}

// searchEntries finds key inside raw little endian (key, value) pairs.
func searchEntries(raw []byte, key uint64) (uint64, bool) {
	entries := array.Wrap(raw)
	i := array.BinarySearchN(entries, entryWords, key)
	if i < 0 {
		return 0, false
	}
	return entries.Get(uint64(i)*entryWords + 1), true
}
