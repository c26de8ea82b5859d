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

package contentReader

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contentReaderFromBytes(t *testing.T, avoidMmap bool, contents []byte) ContentReader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contents.dat")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	reader, err := Open(path, avoidMmap)
	require.NoError(t, err)
	t.Cleanup(func() { reader.Close() })
	return reader
}

func TestContentReader_ReadValue(t *testing.T) {
	contents := []byte{0, 1, 2, 3, 4}
	for _, avoidMmap := range []bool{false, true} {
		t.Run("", func(t *testing.T) {
			reader := contentReaderFromBytes(t, avoidMmap, contents)

			for i := range contents {
				value, offset, err := reader.ReadValue(uint64(i))
				require.NoError(t, err)
				require.Equal(t, byte(i), value)
				require.Equal(t, uint64(i+1), offset)
			}
			require.Equal(t, uint64(len(contents)), reader.Length())

			_, _, err := reader.ReadValue(uint64(len(contents)))
			require.Error(t, err)
		})
	}
}

func TestContentReader_ReadAcrossPages(t *testing.T) {
	// three pages plus a partial one, every uint64 holds its own index
	contents := make([]byte, 3*defaultPageSize+800)
	for i := 0; i+8 <= len(contents); i += 8 {
		binary.LittleEndian.PutUint64(contents[i:], uint64(i/8))
	}

	for _, avoidMmap := range []bool{false, true} {
		t.Run("", func(t *testing.T) {
			reader := contentReaderFromBytes(t, avoidMmap, contents)

			for i := uint64(0); i+8 <= uint64(len(contents)); i += 8 {
				value, next, err := reader.ReadUint64(i)
				require.NoError(t, err)
				require.Equal(t, i/8, value)
				require.Equal(t, i+8, next)
			}

			buf, next, err := reader.ReadRange(defaultPageSize-3, 2*defaultPageSize+10, nil)
			require.NoError(t, err)
			assert.Equal(t, contents[defaultPageSize-3:3*defaultPageSize+7], buf)
			assert.Equal(t, uint64(3*defaultPageSize+7), next)

			_, _, err = reader.ReadRange(uint64(len(contents))-4, 8, nil)
			require.Error(t, err)
		})
	}
}

func TestContentReader_SubRange(t *testing.T) {
	contents := []byte{0, 0, 0, 0, 1, 1, 1, 1, 2, 3, 4, 5}
	for _, avoidMmap := range []bool{false, true} {
		t.Run("", func(t *testing.T) {
			reader := contentReaderFromBytes(t, avoidMmap, contents)

			sub, err := reader.NewWithOffsetStartEnd(4, 12)
			require.NoError(t, err)
			require.Equal(t, uint64(8), sub.Length())

			value, _, err := sub.ReadUint32(0)
			require.NoError(t, err)
			assert.Equal(t, uint32(0x01010101), value)

			b, _, err := sub.ReadValue(7)
			require.NoError(t, err)
			assert.Equal(t, byte(5), b)

			_, _, err = sub.ReadValue(8)
			require.Error(t, err)

			_, err = sub.NewWithOffsetStartEnd(2, 9)
			require.Error(t, err)

			// sub readers do not own the underlying resources
			require.NoError(t, sub.Close())
			_, _, err = reader.ReadValue(0)
			require.NoError(t, err)
		})
	}
}

func TestContentReader_EmptyFile(t *testing.T) {
	for _, avoidMmap := range []bool{false, true} {
		reader := contentReaderFromBytes(t, avoidMmap, nil)
		assert.Equal(t, uint64(0), reader.Length())
		_, _, err := reader.ReadUint64(0)
		assert.Error(t, err)
	}
}
