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

package array

import (
	"math/rand"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordsFromKeys(keys []uint64) LongArray {
	a := Allocate(uint64(len(keys)) * 2)
	for i, k := range keys {
		a.Set(uint64(i)*2, k)
		// payload mirrors the key so we can check records moved as a unit
		a.Set(uint64(i)*2+1, k*10+1)
	}
	return a
}

func assertSortedRecords(t *testing.T, a LongArray, expectedKeys []uint64) {
	t.Helper()
	sorted := append([]uint64(nil), expectedKeys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	require.Equal(t, uint64(len(sorted))*2, a.Size())
	for i, k := range sorted {
		assert.Equal(t, k, a.Get(uint64(i)*2))
		assert.Equal(t, k*10+1, a.Get(uint64(i)*2+1))
	}
}

func TestQuickSortN(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	random := func(n int, max int64) []uint64 {
		out := make([]uint64, n)
		for i := range out {
			out[i] = uint64(r.Int63n(max))
		}
		return out
	}
	ascending := func(n int) []uint64 {
		out := make([]uint64, n)
		for i := range out {
			out[i] = uint64(i)
		}
		return out
	}
	descending := func(n int) []uint64 {
		out := make([]uint64, n)
		for i := range out {
			out[i] = uint64(n - i)
		}
		return out
	}
	constant := func(n int) []uint64 {
		out := make([]uint64, n)
		for i := range out {
			out[i] = 42
		}
		return out
	}

	tests := []struct {
		name string
		keys []uint64
	}{
		{name: "empty", keys: nil},
		{name: "single", keys: []uint64{5}},
		{name: "small random", keys: random(10, 100)},
		{name: "large random", keys: random(5000, 1<<40)},
		{name: "many duplicates", keys: random(3000, 7)},
		{name: "ascending", keys: ascending(2000)},
		{name: "descending", keys: descending(2000)},
		{name: "constant", keys: constant(1000)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			a := recordsFromKeys(test.keys)
			QuickSortN(a, 2)
			assertSortedRecords(t, a, test.keys)
			assert.True(t, IsSortedN(a, 2))
		})
	}
}

func TestQuickSortN_SubRange(t *testing.T) {
	a := recordsFromKeys([]uint64{9, 8, 3, 2, 1, 0})
	view := a.Range(4, 10) // records 2..4: keys 3, 2, 1
	QuickSortN(view, 2)

	assert.Equal(t, uint64(9), a.Get(0))
	assert.Equal(t, uint64(8), a.Get(2))
	assert.Equal(t, uint64(1), a.Get(4))
	assert.Equal(t, uint64(2), a.Get(6))
	assert.Equal(t, uint64(3), a.Get(8))
	assert.Equal(t, uint64(0), a.Get(10))
}

func TestBinarySearchN(t *testing.T) {
	a := recordsFromKeys([]uint64{1, 4, 9, 16, 25})
	assert.Equal(t, int64(0), BinarySearchN(a, 2, 1))
	assert.Equal(t, int64(3), BinarySearchN(a, 2, 16))
	assert.Equal(t, int64(4), BinarySearchN(a, 2, 25))
	assert.Equal(t, int64(-1), BinarySearchN(a, 2, 5))
	assert.Equal(t, int64(-1), BinarySearchN(a, 2, 100))
	assert.Equal(t, int64(-1), BinarySearchN(Allocate(0), 2, 1))
}

func TestLongArrayViews(t *testing.T) {
	a := Allocate(8)
	for i := uint64(0); i < 8; i++ {
		a.Set(i, i*i)
	}

	view := a.Range(2, 6)
	require.Equal(t, uint64(4), view.Size())
	assert.Equal(t, uint64(4), view.Get(0))
	view.Set(1, 1000)
	assert.Equal(t, uint64(1000), a.Get(3))

	nested := view.Range(1, 3)
	assert.Equal(t, uint64(1000), nested.Get(0))
	assert.Equal(t, uint64(16), nested.Get(1))

	assert.Panics(t, func() { view.Get(4) })
	assert.Panics(t, func() { view.Range(3, 5) })
}

func TestMappedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.dat")

	m, err := CreateMapped(path, 16)
	require.NoError(t, err)
	arr := m.Array()
	require.Equal(t, uint64(16), arr.Size())
	for i := uint64(0); i < 16; i++ {
		arr.Set(i, 16-i)
	}
	require.NoError(t, m.Flush())
	require.NoError(t, m.Close())

	m, err = OpenMapped(path, false)
	require.NoError(t, err)
	defer m.Close()
	for i := uint64(0); i < 16; i++ {
		assert.Equal(t, 16-i, m.Array().Get(i))
	}
}
