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

package ordered

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/array"
	"github.com/weaviate/revindex/adapters/repos/db/revindex/contentReader"
	entrev "github.com/weaviate/revindex/entities/revindex"
)

const DefaultFanout = 64

// BTree is a static B+tree. After the header it stores one layer of
// separator keys per tree level, root layer first, and then the data pages.
// A separator is the largest key of the node or page below it, so child i of
// a node covers the keys up to separator i.
//
// The layer sizes follow from the number of entries and the fanout and are
// not stored.
type BTree struct {
	fanout uint64
}

func (t *BTree) Kind() Kind {
	return KindBTree
}

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// layerSizes returns the number of separators per layer, bottom layer first.
func layerSizes(entries, fanout uint64) []uint64 {
	var sizes []uint64
	for count := ceilDiv(entries, fanout); count > 1; count = ceilDiv(count, fanout) {
		sizes = append(sizes, count)
	}
	return sizes
}

func (t *BTree) Transform(w *BlockWriter, data array.LongArray) (int64, error) {
	n, err := checkPairs(data)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return Absent, nil
	}
	if t.fanout > math.MaxUint32 {
		return 0, errors.Errorf("btree fanout %d does not fit the header", t.fanout)
	}

	// bottom layer: last key of every data page
	sizes := layerSizes(n, t.fanout)
	layers := make([][]uint64, len(sizes))
	if len(sizes) > 0 {
		bottom := make([]uint64, sizes[0])
		for p := range bottom {
			last := min(uint64(p+1)*t.fanout, n) - 1
			bottom[p] = data.Get(last * entryWords)
		}
		layers[0] = bottom
	}
	for l := 1; l < len(sizes); l++ {
		below := layers[l-1]
		layer := make([]uint64, sizes[l])
		for i := range layer {
			last := min(uint64(i+1)*t.fanout, uint64(len(below))) - 1
			layer[i] = below[last]
		}
		layers[l] = layer
	}

	root := w.Offset()
	if err := w.writeHeader(header{
		magic:      magicBTree,
		entryWords: entryWords,
		numEntries: n,
		param:      uint32(t.fanout),
		levels:     uint32(len(sizes)),
	}); err != nil {
		return 0, err
	}
	for l := len(layers) - 1; l >= 0; l-- {
		for _, key := range layers[l] {
			if err := w.WriteUint64(key); err != nil {
				return 0, err
			}
		}
	}
	if err := w.WriteWords(data); err != nil {
		return 0, err
	}
	return root, nil
}

type btreeLayer struct {
	offset uint64
	size   uint64
}

type btreeIndex struct {
	r          contentReader.ContentReader
	numEntries uint64
	fanout     uint64
	// root layer first
	layers     []btreeLayer
	dataOffset uint64
}

func openBTree(r contentReader.ContentReader, offset uint64, h header) (*btreeIndex, error) {
	sizes := layerSizes(h.numEntries, uint64(h.param))
	if uint32(len(sizes)) != h.levels {
		return nil, errors.Wrapf(entrev.ErrCorruptBlock,
			"btree at %d has %d levels, expected %d", offset, h.levels, len(sizes))
	}

	idx := &btreeIndex{
		r:          r,
		numEntries: h.numEntries,
		fanout:     uint64(h.param),
		layers:     make([]btreeLayer, len(sizes)),
	}
	pos := offset + headerSize
	for i := range idx.layers {
		size := sizes[len(sizes)-1-i]
		idx.layers[i] = btreeLayer{offset: pos, size: size}
		pos += size * 8
	}
	idx.dataOffset = pos

	if end := pos + h.numEntries*entrySize; end > r.Length() {
		return nil, errors.Wrapf(entrev.ErrCorruptBlock,
			"btree at %d ends at %d, past the end of the file", offset, end)
	}
	return idx, nil
}

func (t *btreeIndex) NumEntries() uint64 {
	return t.numEntries
}

func (t *btreeIndex) Get(key uint64) (uint64, bool, error) {
	child := uint64(0)
	for _, layer := range t.layers {
		start := child * t.fanout
		end := min(start+t.fanout, layer.size)
		if start >= end {
			return 0, false, errors.Wrapf(entrev.ErrCorruptBlock, "btree node %d out of range", child)
		}

		node, _, err := t.r.ReadRange(layer.offset+start*8, (end-start)*8, nil)
		if err != nil {
			return 0, false, errors.Wrap(err, "read btree node")
		}
		i := sort.Search(int(end-start), func(i int) bool {
			return binary.LittleEndian.Uint64(node[i*8:]) >= key
		})
		if i == int(end-start) {
			return 0, false, nil
		}
		child = start + uint64(i)
	}

	start := child * t.fanout
	end := min(start+t.fanout, t.numEntries)
	if start >= end {
		return 0, false, errors.Wrapf(entrev.ErrCorruptBlock, "btree page %d out of range", child)
	}
	page, _, err := t.r.ReadRange(t.dataOffset+start*entrySize, (end-start)*entrySize, nil)
	if err != nil {
		return 0, false, errors.Wrap(err, "read btree page")
	}
	value, ok := searchEntries(page, key)
	return value, ok, nil
}

func (t *btreeIndex) Iterator() Iterator {
	return &sequentialIterator{r: t.r, offset: t.dataOffset, remaining: t.numEntries}
}

// sequentialIterator reads entries stored back to back.
type sequentialIterator struct {
	r         contentReader.ContentReader
	offset    uint64
	remaining uint64
	err       error
}

func (it *sequentialIterator) Next() (uint64, uint64, bool) {
	if it.remaining == 0 || it.err != nil {
		return 0, 0, false
	}
	key, next, err := it.r.ReadUint64(it.offset)
	if err != nil {
		it.err = err
		return 0, 0, false
	}
	value, next, err := it.r.ReadUint64(next)
	if err != nil {
		it.err = err
		return 0, 0, false
	}
	it.offset = next
	it.remaining--
	return key, value, true
}

func (it *sequentialIterator) Err() error {
	return it.err
}
