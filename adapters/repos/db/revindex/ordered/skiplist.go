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
	"math/bits"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/array"
	"github.com/weaviate/revindex/adapters/repos/db/revindex/contentReader"
	entrev "github.com/weaviate/revindex/entities/revindex"
)

const DefaultBlockSize = 128

const blockHeadSize = 16

// SkipList groups the entries into blocks that are linked by forward
// pointers on up to `levels` levels. Every block is laid out as
//
//	[count u32][level u32][last key u64][level x forward pointer u64][entries]
//
// Block 0 carries all levels. The level of every other block is drawn from a
// generator seeded with the number of entries, so rebuilding the same data
// yields the same bytes.
type SkipList struct {
	blockSize uint64
}

func (s *SkipList) Kind() Kind {
	return KindSkipList
}

func maxLevel(blocks uint64) uint32 {
	return uint32(max(1, bits.Len64(blocks)))
}

func (s *SkipList) levels(blocks uint64, entries uint64) []uint32 {
	top := maxLevel(blocks)
	rng := rand.New(rand.NewPCG(entries, s.blockSize))

	levels := make([]uint32, blocks)
	levels[0] = top
	for i := uint64(1); i < blocks; i++ {
		level := uint32(1)
		for level < top && rng.Uint64()&1 == 0 {
			level++
		}
		levels[i] = level
	}
	return levels
}

func (s *SkipList) Transform(w *BlockWriter, data array.LongArray) (int64, error) {
	n, err := checkPairs(data)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return Absent, nil
	}
	if s.blockSize > math.MaxUint32 {
		return 0, errors.Errorf("skip list block size %d does not fit the header", s.blockSize)
	}

	blocks := ceilDiv(n, s.blockSize)
	levels := s.levels(blocks, n)

	root := w.Offset()
	offsets := make([]uint64, blocks)
	pos := uint64(root) + headerSize
	for i := range offsets {
		offsets[i] = pos
		count := min(s.blockSize, n-uint64(i)*s.blockSize)
		pos += blockHeadSize + uint64(levels[i])*8 + count*entrySize
	}

	// forward[i][l] is the next block after i that reaches level l
	forward := make([][]uint64, blocks)
	next := make([]uint64, levels[0])
	for l := range next {
		next[l] = absentPtr
	}
	for i := int(blocks) - 1; i >= 0; i-- {
		forward[i] = append([]uint64(nil), next[:levels[i]]...)
		for l := uint32(0); l < levels[i]; l++ {
			next[l] = offsets[i]
		}
	}

	if err := w.writeHeader(header{
		magic:      magicSkipList,
		entryWords: entryWords,
		numEntries: n,
		param:      uint32(s.blockSize),
		levels:     levels[0],
	}); err != nil {
		return 0, err
	}

	for i := uint64(0); i < blocks; i++ {
		start := i * s.blockSize
		end := min(start+s.blockSize, n)
		if err := w.WriteUint32(uint32(end - start)); err != nil {
			return 0, err
		}
		if err := w.WriteUint32(levels[i]); err != nil {
			return 0, err
		}
		if err := w.WriteUint64(data.Get((end - 1) * entryWords)); err != nil {
			return 0, err
		}
		for _, ptr := range forward[i] {
			if err := w.WriteUint64(ptr); err != nil {
				return 0, err
			}
		}
		if err := w.WriteWords(data.Range(start*entryWords, end*entryWords)); err != nil {
			return 0, err
		}
	}
	return root, nil
}

type skipListIndex struct {
	r          contentReader.ContentReader
	numEntries uint64
	blockSize  uint64
	levels     uint32
	first      uint64
}

type skipBlock struct {
	count   uint64
	lastKey uint64
	forward []uint64
	entries uint64
}

func openSkipList(r contentReader.ContentReader, offset uint64, h header) (*skipListIndex, error) {
	blocks := ceilDiv(h.numEntries, uint64(h.param))
	if h.levels != maxLevel(blocks) {
		return nil, errors.Wrapf(entrev.ErrCorruptBlock,
			"skip list at %d has %d levels, expected %d", offset, h.levels, maxLevel(blocks))
	}
	return &skipListIndex{
		r:          r,
		numEntries: h.numEntries,
		blockSize:  uint64(h.param),
		levels:     h.levels,
		first:      offset + headerSize,
	}, nil
}

func (s *skipListIndex) NumEntries() uint64 {
	return s.numEntries
}

func (s *skipListIndex) readBlock(offset uint64) (skipBlock, error) {
	head, _, err := s.r.ReadRange(offset, blockHeadSize, make([]byte, blockHeadSize))
	if err != nil {
		return skipBlock{}, errors.Wrapf(err, "read skip list block at %d", offset)
	}
	count := uint64(binary.LittleEndian.Uint32(head[0:4]))
	level := binary.LittleEndian.Uint32(head[4:8])
	if count == 0 || count > s.blockSize || level == 0 || level > s.levels {
		return skipBlock{}, errors.Wrapf(entrev.ErrCorruptBlock,
			"skip list block at %d has %d entries on level %d", offset, count, level)
	}

	ptrs, _, err := s.r.ReadRange(offset+blockHeadSize, uint64(level)*8, nil)
	if err != nil {
		return skipBlock{}, errors.Wrapf(err, "read skip list block at %d", offset)
	}
	block := skipBlock{
		count:   count,
		lastKey: binary.LittleEndian.Uint64(head[8:16]),
		forward: make([]uint64, level),
		entries: offset + blockHeadSize + uint64(level)*8,
	}
	for l := range block.forward {
		block.forward[l] = binary.LittleEndian.Uint64(ptrs[l*8:])
	}
	return block, nil
}

func (s *skipListIndex) Get(key uint64) (uint64, bool, error) {
	cur, err := s.readBlock(s.first)
	if err != nil {
		return 0, false, err
	}

	if cur.lastKey < key {
		for l := int(s.levels) - 1; l >= 0; l-- {
			for l < len(cur.forward) && cur.forward[l] != absentPtr {
				candidate, err := s.readBlock(cur.forward[l])
				if err != nil {
					return 0, false, err
				}
				if candidate.lastKey >= key {
					break
				}
				cur = candidate
			}
		}
		// cur is the last block ending before key
		if cur.forward[0] == absentPtr {
			return 0, false, nil
		}
		if cur, err = s.readBlock(cur.forward[0]); err != nil {
			return 0, false, err
		}
	}

	raw, _, err := s.r.ReadRange(cur.entries, cur.count*entrySize, nil)
	if err != nil {
		return 0, false, errors.Wrap(err, "read skip list entries")
	}
	value, ok := searchEntries(raw, key)
	return value, ok, nil
}

func (s *skipListIndex) Iterator() Iterator {
	return &skipListIterator{index: s, next: s.first, remaining: s.numEntries}
}

type skipListIterator struct {
	index     *skipListIndex
	next      uint64
	block     sequentialIterator
	remaining uint64
	err       error
}

func (it *skipListIterator) Next() (uint64, uint64, bool) {
	if it.err != nil || it.remaining == 0 {
		return 0, 0, false
	}
	if it.block.remaining == 0 {
		if it.next == absentPtr {
			it.err = errors.Wrap(entrev.ErrCorruptBlock, "skip list ends before its last entry")
			return 0, 0, false
		}
		block, err := it.index.readBlock(it.next)
		if err != nil {
			it.err = err
			return 0, 0, false
		}
		it.block = sequentialIterator{r: it.index.r, offset: block.entries, remaining: block.count}
		it.next = block.forward[0]
	}

	key, value, ok := it.block.Next()
	if !ok {
		it.err = it.block.Err()
		return 0, 0, false
	}
	it.remaining--
	return key, value, true
}

func (it *skipListIterator) Err() error {
	return it.err
}
