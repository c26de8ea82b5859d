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
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/weaviate/revindex/usecases/mmap"
)

// MappedFile owns a memory mapping of a file and hands out LongArray views
// over it. Views must not be used after Close.
type MappedFile struct {
	path     string
	file     *os.File
	contents mmap.MMap
}

// CreateMapped creates (or truncates) the file at path to the given number of
// zeroed words and maps it read-write.
func CreateMapped(path string, words uint64) (*MappedFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "create %q", path)
	}
	if err := file.Truncate(int64(words * wordSize)); err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "truncate %q to %d words", path, words)
	}
	return mapFile(path, file, mmap.RDWR)
}

// OpenMapped maps an existing file, read-write if writable is set.
func OpenMapped(path string, writable bool) (*MappedFile, error) {
	flag, prot := os.O_RDONLY, mmap.RDONLY
	if writable {
		flag, prot = os.O_RDWR, mmap.RDWR
	}
	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %q", path)
	}
	return mapFile(path, file, prot)
}

func mapFile(path string, file *os.File, prot int) (*MappedFile, error) {
	contents, err := mmap.MapFile(file, prot)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mmap %q: %w", path, err)
	}
	return &MappedFile{path: path, file: file, contents: contents}, nil
}

func (m *MappedFile) Path() string {
	return m.path
}

func (m *MappedFile) Array() LongArray {
	return Wrap(m.contents)
}

// Flush writes dirty pages of a writable mapping back to the file.
func (m *MappedFile) Flush() error {
	if len(m.contents) == 0 {
		return nil
	}
	if err := m.contents.Flush(); err != nil {
		return fmt.Errorf("flush mapping of %q: %w", m.path, err)
	}
	return nil
}

func (m *MappedFile) Close() error {
	if err := mmap.Unmap(m.contents); err != nil {
		m.file.Close()
		return fmt.Errorf("munmap %q: %w", m.path, err)
	}
	m.contents = nil
	if err := m.file.Close(); err != nil {
		return fmt.Errorf("close %q: %w", m.path, err)
	}
	return nil
}
