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
	"fmt"
	"io"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/weaviate/revindex/usecases/mmap"
)

const (
	uint64Len = 8
	uint32Len = 4

	defaultPageSize   = 4096
	defaultCachePages = 1024
)

// ContentReader gives random access to the immutable contents of a finished
// index file. Offsets are relative to the start of the reader. All
// implementations are safe for concurrent use.
type ContentReader interface {
	ReadValue(offset uint64) (byte, uint64, error)
	ReadRange(offset uint64, length uint64, outBuf []byte) ([]byte, uint64, error)
	ReadUint64(offset uint64) (uint64, uint64, error)
	ReadUint32(offset uint64) (uint32, uint64, error)
	Length() uint64
	NewWithOffsetStartEnd(start uint64, end uint64) (ContentReader, error)
	Close() error
}

// Open returns a mmap backed reader for path, or a pread backed one with a
// page cache if avoidMmap is set.
func Open(path string, avoidMmap bool) (ContentReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}

	if avoidMmap {
		return NewPread(file, uint64(info.Size()), defaultCachePages)
	}

	contents, err := mmap.MapFile(file, mmap.RDONLY)
	// the mapping stays valid after the descriptor is closed
	file.Close()
	if err != nil {
		return nil, fmt.Errorf("mmap %q: %w", path, err)
	}
	return NewMMap(contents), nil
}

func outOfRange(offset, length, size uint64) error {
	return fmt.Errorf("read of %d bytes at offset %d exceeds content length %d: %w",
		length, offset, size, io.ErrUnexpectedEOF)
}

type MMap struct {
	contents []byte
	// owned is false for sub-readers, which must not unmap the shared region
	owned bool
}

func NewMMap(contents []byte) ContentReader {
	return MMap{contents: contents, owned: true}
}

func (c MMap) ReadValue(offset uint64) (byte, uint64, error) {
	if offset >= uint64(len(c.contents)) {
		return 0, offset, outOfRange(offset, 1, c.Length())
	}
	return c.contents[offset], offset + 1, nil
}

func (c MMap) ReadRange(offset uint64, length uint64, outBuf []byte) ([]byte, uint64, error) {
	if offset+length > uint64(len(c.contents)) {
		return nil, offset, outOfRange(offset, length, c.Length())
	}
	if outBuf == nil || uint64(len(outBuf)) < length {
		return c.contents[offset : offset+length], offset + length, nil
	}
	copy(outBuf, c.contents[offset:offset+length])
	return outBuf[:length], offset + length, nil
}

func (c MMap) ReadUint64(offset uint64) (uint64, uint64, error) {
	if offset+uint64Len > uint64(len(c.contents)) {
		return 0, offset, outOfRange(offset, uint64Len, c.Length())
	}
	return binary.LittleEndian.Uint64(c.contents[offset : offset+uint64Len]), offset + uint64Len, nil
}

func (c MMap) ReadUint32(offset uint64) (uint32, uint64, error) {
	if offset+uint32Len > uint64(len(c.contents)) {
		return 0, offset, outOfRange(offset, uint32Len, c.Length())
	}
	return binary.LittleEndian.Uint32(c.contents[offset : offset+uint32Len]), offset + uint32Len, nil
}

func (c MMap) Length() uint64 {
	return uint64(len(c.contents))
}

func (c MMap) NewWithOffsetStartEnd(start uint64, end uint64) (ContentReader, error) {
	if start > end || end > uint64(len(c.contents)) {
		return nil, fmt.Errorf("range [%d:%d) is outside of the contents of length %d", start, end, len(c.contents))
	}
	return MMap{contents: c.contents[start:end]}, nil
}

func (c MMap) Close() error {
	if !c.owned {
		return nil
	}
	if err := mmap.Unmap(c.contents); err != nil {
		return fmt.Errorf("close content reader: munmap: %w", err)
	}
	return nil
}

// Pread serves reads through positional reads of the file, caching whole
// pages in an LRU. It is used where mmap should be avoided.
type Pread struct {
	contentFile *os.File
	startOffset uint64
	endOffset   uint64
	cache       *lru.Cache[uint64, []byte]
	pageSize    uint64
	owned       bool
}

func NewPread(contentFile *os.File, size uint64, cachePages int) (ContentReader, error) {
	cache, err := lru.New[uint64, []byte](cachePages)
	if err != nil {
		return nil, fmt.Errorf("create page cache: %w", err)
	}
	return Pread{
		contentFile: contentFile,
		startOffset: 0,
		endOffset:   size,
		cache:       cache,
		pageSize:    defaultPageSize,
		owned:       true,
	}, nil
}

func (c Pread) page(index uint64) ([]byte, error) {
	if memory, ok := c.cache.Get(index); ok {
		return memory, nil
	}
	memory := make([]byte, c.pageSize)
	n, err := c.contentFile.ReadAt(memory, int64(index*c.pageSize))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("pread page %d: %w", index, err)
	}
	memory = memory[:n]
	c.cache.Add(index, memory)
	return memory, nil
}

func (c Pread) ReadRange(offset uint64, length uint64, outBuf []byte) ([]byte, uint64, error) {
	if offset+length > c.Length() {
		return nil, offset, outOfRange(offset, length, c.Length())
	}
	if outBuf == nil || uint64(len(outBuf)) < length {
		outBuf = make([]byte, length)
	}
	outBuf = outBuf[:length]

	pos := c.startOffset + offset
	copied := uint64(0)
	for copied < length {
		memory, err := c.page(pos / c.pageSize)
		if err != nil {
			return nil, offset, err
		}
		inPage := pos % c.pageSize
		if inPage >= uint64(len(memory)) {
			return nil, offset, outOfRange(offset, length, c.Length())
		}
		n := uint64(copy(outBuf[copied:], memory[inPage:]))
		copied += n
		pos += n
	}
	return outBuf, offset + length, nil
}

func (c Pread) ReadValue(offset uint64) (byte, uint64, error) {
	var buf [1]byte
	_, next, err := c.ReadRange(offset, 1, buf[:])
	return buf[0], next, err
}

func (c Pread) ReadUint64(offset uint64) (uint64, uint64, error) {
	var buf [uint64Len]byte
	_, next, err := c.ReadRange(offset, uint64Len, buf[:])
	if err != nil {
		return 0, offset, err
	}
	return binary.LittleEndian.Uint64(buf[:]), next, nil
}

func (c Pread) ReadUint32(offset uint64) (uint32, uint64, error) {
	var buf [uint32Len]byte
	_, next, err := c.ReadRange(offset, uint32Len, buf[:])
	if err != nil {
		return 0, offset, err
	}
	return binary.LittleEndian.Uint32(buf[:]), next, nil
}

func (c Pread) Length() uint64 {
	return c.endOffset - c.startOffset
}

func (c Pread) NewWithOffsetStartEnd(start uint64, end uint64) (ContentReader, error) {
	if start > end || c.startOffset+end > c.endOffset {
		return nil, fmt.Errorf("range [%d:%d) is outside of the contents of length %d", start, end, c.Length())
	}
	return Pread{
		contentFile: c.contentFile,
		startOffset: c.startOffset + start,
		endOffset:   c.startOffset + end,
		cache:       c.cache,
		pageSize:    c.pageSize,
	}, nil
}

func (c Pread) Close() error {
	if !c.owned {
		return nil
	}
	c.cache.Purge()
	if err := c.contentFile.Close(); err != nil {
		return fmt.Errorf("close contents file: %w", err)
	}
	return nil
}
