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

package positions

import (
	"math/bits"

	"github.com/pkg/errors"
)

// ErrCorruptSequence is returned when gamma coded bytes cannot be decoded.
var ErrCorruptSequence = errors.New("corrupt gamma coded sequence")

type bitWriter struct {
	out    []byte
	bitPos int // next free bit in the last byte, 0..7, MSB first
}

func (w *bitWriter) writeBit(bit uint64) {
	if w.bitPos == 0 {
		w.out = append(w.out, 0)
	}
	if bit != 0 {
		w.out[len(w.out)-1] |= 1 << (7 - w.bitPos)
	}
	w.bitPos = (w.bitPos + 1) % 8
}

// writeGamma writes the Elias gamma code of v, which must be >= 1: as many
// zeros as v has bits after the leading one, then v itself MSB first.
func (w *bitWriter) writeGamma(v uint64) {
	n := bits.Len64(v) - 1
	for i := 0; i < n; i++ {
		w.writeBit(0)
	}
	for i := n; i >= 0; i-- {
		w.writeBit((v >> i) & 1)
	}
}

type bitReader struct {
	data []byte
	pos  int // absolute bit position
}

func (r *bitReader) readBit() (uint64, bool) {
	if r.pos >= len(r.data)*8 {
		return 0, false
	}
	b := r.data[r.pos/8] >> (7 - r.pos%8) & 1
	r.pos++
	return uint64(b), true
}

func (r *bitReader) readGamma() (uint64, error) {
	n := 0
	for {
		bit, ok := r.readBit()
		if !ok {
			return 0, ErrCorruptSequence
		}
		if bit == 1 {
			break
		}
		n++
		if n > 63 {
			return 0, ErrCorruptSequence
		}
	}

	v := uint64(1)
	for i := 0; i < n; i++ {
		bit, ok := r.readBit()
		if !ok {
			return 0, ErrCorruptSequence
		}
		v = v<<1 | bit
	}
	return v, nil
}

// Encode gamma codes an ascending position sequence. The length is coded
// first, followed by the gaps between consecutive positions (the first gap
// relative to zero). Every value is shifted by one as gamma codes cannot
// represent zero.
func Encode(positions []uint32) ([]byte, error) {
	w := bitWriter{out: make([]byte, 0, 1+len(positions))}
	w.writeGamma(uint64(len(positions)) + 1)

	prev := uint64(0)
	for i, p := range positions {
		if uint64(p) < prev {
			return nil, errors.Errorf("positions must be ascending, got %d after %d at index %d", p, prev, i)
		}
		w.writeGamma(uint64(p) - prev + 1)
		prev = uint64(p)
	}
	return w.out, nil
}

// Decode reverses Encode.
func Decode(data []byte) ([]uint32, error) {
	r := bitReader{data: data}
	count, err := r.readGamma()
	if err != nil {
		return nil, err
	}
	count--
	// every gap takes at least one bit
	if count > uint64(len(data)*8) {
		return nil, ErrCorruptSequence
	}

	out := make([]uint32, count)
	prev := uint64(0)
	for i := range out {
		gap, err := r.readGamma()
		if err != nil {
			return nil, err
		}
		prev += gap - 1
		if prev > uint64(^uint32(0)) {
			return nil, ErrCorruptSequence
		}
		out[i] = uint32(prev)
	}
	return out, nil
}
