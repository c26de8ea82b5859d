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
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGammaRoundTrip(t *testing.T) {
	tests := [][]uint32{
		{},
		{0},
		{1, 2, 3},
		{2, 3, 5, 1000, 5000, 20241},
		{7, 7, 7},
		{0, math.MaxUint32},
	}

	for _, positions := range tests {
		t.Run(fmt.Sprint(positions), func(t *testing.T) {
			coded, err := Encode(positions)
			require.NoError(t, err)

			decoded, err := Decode(coded)
			require.NoError(t, err)
			assert.Equal(t, positions, decoded)
		})
	}
}

func TestGammaCompactness(t *testing.T) {
	// 00101 | 1 | 010 010 010: fifteen bits
	coded, err := Encode([]uint32{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{0b00101101, 0b00100100}, coded)
}

func TestGammaRejectsDescending(t *testing.T) {
	_, err := Encode([]uint32{5, 4})
	assert.Error(t, err)
}

func TestGammaCorruptInput(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrCorruptSequence)

	_, err = Decode([]byte{0, 0, 0})
	assert.ErrorIs(t, err, ErrCorruptSequence)

	coded, err := Encode([]uint32{100, 2000, 30000})
	require.NoError(t, err)
	_, err = Decode(coded[:len(coded)-2])
	assert.ErrorIs(t, err, ErrCorruptSequence)
}

type record struct {
	flags     byte
	positions []uint32
}

func writeRecords(t *testing.T, path string, records []record) []uint64 {
	t.Helper()
	w, err := NewWriter(path)
	require.NoError(t, err)

	keys := make([]uint64, len(records))
	for i, rec := range records {
		keys[i], err = w.Add(rec.flags, rec.positions)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return keys
}

func TestPositionsStoreRoundTrip(t *testing.T) {
	records := []record{
		{flags: 51, positions: []uint32{1, 3, 5}},
		{flags: 0, positions: []uint32{}},
		{flags: 255, positions: []uint32{1, 2, 3}},
		{flags: 7, positions: []uint32{2, 3, 5, 1000, 5000, 20241}},
	}
	// one record larger than what fits into the key's size bits
	long := make([]uint32, 40000)
	for i := range long {
		long[i] = uint32(i * 1000)
	}
	records = append(records, record{flags: 9, positions: long})

	for _, avoidMmap := range []bool{false, true} {
		t.Run(fmt.Sprintf("avoidMmap=%t", avoidMmap), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "positions.dat")
			keys := writeRecords(t, path, records)

			seen := map[uint64]struct{}{}
			for _, key := range keys {
				_, dup := seen[key]
				require.False(t, dup, "keys must never be reused")
				seen[key] = struct{}{}
			}
			_, size := splitKey(keys[len(keys)-1])
			assert.Zero(t, size, "oversized records carry no size in their key")

			r, err := OpenReader(path, avoidMmap)
			require.NoError(t, err)
			defer r.Close()

			for i, key := range keys {
				flags, positions, err := r.Get(key)
				require.NoError(t, err)
				assert.Equal(t, records[i].flags, flags)
				assert.Equal(t, len(records[i].positions), len(positions))
				assert.Equal(t, records[i].positions, positions)
			}
		})
	}
}

func TestPositionsStoreOversizedFirstRecordHasKeyZero(t *testing.T) {
	long := make([]uint32, 100000)
	for i := range long {
		long[i] = uint32(i * 3)
	}
	records := []record{
		{flags: 3, positions: long},
		{flags: 4, positions: []uint32{9}},
	}

	for _, avoidMmap := range []bool{false, true} {
		t.Run(fmt.Sprintf("avoidMmap=%t", avoidMmap), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "positions.dat")
			keys := writeRecords(t, path, records)
			require.Equal(t, uint64(0), keys[0])
			require.NotEqual(t, keys[0], keys[1])

			r, err := OpenReader(path, avoidMmap)
			require.NoError(t, err)
			defer r.Close()

			for i, key := range keys {
				flags, positions, err := r.Get(key)
				require.NoError(t, err)
				assert.Equal(t, records[i].flags, flags)
				assert.Equal(t, records[i].positions, positions)
			}
		})
	}
}

func TestPositionsStoreConcurrentReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.dat")
	records := make([]record, 500)
	for i := range records {
		records[i] = record{flags: byte(i), positions: []uint32{uint32(i), uint32(i + 10), uint32(i*3 + 20)}}
	}
	keys := writeRecords(t, path, records)

	r, err := OpenReader(path, false)
	require.NoError(t, err)
	defer r.Close()

	wg := sync.WaitGroup{}
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := g; i < len(keys); i += 8 {
				flags, positions, err := r.Get(keys[i])
				if err != nil {
					errs <- err
					return
				}
				if flags != records[i].flags || len(positions) != 3 || positions[0] != uint32(i) {
					errs <- fmt.Errorf("record %d decoded wrongly", i)
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestPositionsStoreInvalidKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.dat")
	keys := writeRecords(t, path, []record{{flags: 1, positions: []uint32{4}}})

	r, err := OpenReader(path, false)
	require.NoError(t, err)
	defer r.Close()

	_, _, err = r.Get(makeKey(1000, 0))
	assert.Error(t, err)

	offset, size := splitKey(keys[0])
	_, _, err = r.Get(makeKey(offset, size+1))
	assert.Error(t, err)
}
