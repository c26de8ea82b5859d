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

package randomwrite

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/array"
	"github.com/weaviate/revindex/entities/diskio"
)

type mmapped struct {
	path    string
	size    uint64
	mapped  *array.MappedFile
	arr     array.LongArray
	written bool
}

func newMmapped(scratchDir string, size uint64) (*mmapped, error) {
	path := filepath.Join(scratchDir, "assembler-"+uuid.NewString()+".dat")
	mapped, err := array.CreateMapped(path, size)
	if err != nil {
		return nil, errors.Wrap(err, "create mapped scratch file")
	}
	return &mmapped{path: path, size: size, mapped: mapped, arr: mapped.Array()}, nil
}

func (m *mmapped) Put(address uint64, value uint64) error {
	if address >= m.size {
		return addressError(address, m.size)
	}
	if m.written {
		return errAlreadyWritten
	}
	m.arr.Set(address, value)
	return nil
}

func (m *mmapped) Write(dest string) error {
	if m.written {
		return errAlreadyWritten
	}
	m.written = true

	if err := m.mapped.Flush(); err != nil {
		return err
	}
	err := m.mapped.Close()
	m.mapped = nil
	if err != nil {
		return err
	}
	return diskio.SyncAndRename(m.path, dest)
}

func (m *mmapped) Close() error {
	var result *multierror.Error
	if m.mapped != nil {
		result = multierror.Append(result, m.mapped.Close())
		m.mapped = nil
	}
	// after a successful Write the scratch file has been renamed away
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		result = multierror.Append(result, errors.Wrapf(err, "remove %q", m.path))
	}
	return result.ErrorOrNil()
}

func (m *mmapped) Size() uint64 {
	return m.size
}

func (m *mmapped) Strategy() Strategy {
	return StrategyMmap
}

type heap struct {
	arr     array.LongArray
	written bool
}

func newHeap(size uint64) *heap {
	return &heap{arr: array.Allocate(size)}
}

func (h *heap) Put(address uint64, value uint64) error {
	if address >= h.arr.Size() {
		return addressError(address, h.arr.Size())
	}
	if h.written {
		return errAlreadyWritten
	}
	h.arr.Set(address, value)
	return nil
}

func (h *heap) Write(dest string) error {
	if h.written {
		return errAlreadyWritten
	}
	h.written = true
	return writeArrayAtomically(h.arr, dest)
}

func (h *heap) Close() error {
	h.arr = array.LongArray{}
	return nil
}

func (h *heap) Size() uint64 {
	return h.arr.Size()
}

func (h *heap) Strategy() Strategy {
	return StrategyHeap
}
