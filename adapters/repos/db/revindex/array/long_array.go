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

// Package array provides word-addressed views over owned or memory-mapped
// byte buffers. A LongArray is a (base, length) window; sub-ranges share the
// backing buffer without copying.
package array

import (
	"encoding/binary"
	"fmt"
	"io"
)

const wordSize = 8

type LongArray struct {
	data []byte
	base uint64
	size uint64
}

// Wrap interprets data as little endian 64-bit words. Trailing bytes that do
// not form a complete word are ignored.
func Wrap(data []byte) LongArray {
	return LongArray{data: data, size: uint64(len(data)) / wordSize}
}

// Allocate creates a zeroed heap-backed array of the given number of words.
func Allocate(words uint64) LongArray {
	return Wrap(make([]byte, words*wordSize))
}

func (a LongArray) Size() uint64 {
	return a.size
}

func (a LongArray) check(i uint64) {
	if i >= a.size {
		panic(fmt.Sprintf("index %d out of range [0:%d)", i, a.size))
	}
}

func (a LongArray) Get(i uint64) uint64 {
	a.check(i)
	off := (a.base + i) * wordSize
	return binary.LittleEndian.Uint64(a.data[off : off+wordSize])
}

func (a LongArray) Set(i, v uint64) {
	a.check(i)
	off := (a.base + i) * wordSize
	binary.LittleEndian.PutUint64(a.data[off:off+wordSize], v)
}

func (a LongArray) Swap(i, j uint64) {
	vi, vj := a.Get(i), a.Get(j)
	a.Set(i, vj)
	a.Set(j, vi)
}

// Range returns the view of words [start, end). It panics if the range is
// not inside the array.
func (a LongArray) Range(start, end uint64) LongArray {
	if start > end || end > a.size {
		panic(fmt.Sprintf("range [%d:%d) out of range [0:%d)", start, end, a.size))
	}
	return LongArray{data: a.data, base: a.base + start, size: end - start}
}

// Bytes exposes the raw bytes of the view.
func (a LongArray) Bytes() []byte {
	return a.data[a.base*wordSize : (a.base+a.size)*wordSize]
}

// WriteTo writes the view in its on-disk representation.
func (a LongArray) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.Bytes())
	return int64(n), err
}

// ReadFrom fills the view from r, which must hold at least Size() words.
func (a LongArray) ReadFrom(r io.Reader) (int64, error) {
	n, err := io.ReadFull(r, a.Bytes())
	return int64(n), err
}

// Fill sets every word of the view to v.
func (a LongArray) Fill(v uint64) {
	for i := uint64(0); i < a.size; i++ {
		a.Set(i, v)
	}
}
