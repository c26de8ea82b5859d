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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/array"
	"github.com/weaviate/revindex/entities/diskio"
)

const pairSize = 16

// funnel partitions the address space into bins. Each bin keeps its pending
// (address, value) pairs in a small buffer that spills to the bin's own temp
// file, so the scatter phase only ever appends. Write replays one bin at a
// time into a staging buffer and streams it out sequentially.
type funnel struct {
	dir           string
	size          uint64
	binWords      uint64
	bufferEntries int
	bins          []*funnelBin
	written       bool
}

type funnelBin struct {
	path    string
	file    *os.File
	pending []byte
	spilled uint64
}

func newFunnel(scratchDir string, size, binWords uint64, bufferEntries int) (*funnel, error) {
	dir := filepath.Join(scratchDir, "funnel-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create funnel dir %q", dir)
	}

	binCount := (size + binWords - 1) / binWords
	return &funnel{
		dir:           dir,
		size:          size,
		binWords:      binWords,
		bufferEntries: bufferEntries,
		bins:          make([]*funnelBin, binCount),
	}, nil
}

func (f *funnel) Put(address uint64, value uint64) error {
	if address >= f.size {
		return addressError(address, f.size)
	}
	if f.written {
		return errAlreadyWritten
	}

	idx := address / f.binWords
	bin := f.bins[idx]
	if bin == nil {
		bin = &funnelBin{
			path:    filepath.Join(f.dir, fmt.Sprintf("bin-%05d.dat", idx)),
			pending: make([]byte, 0, f.bufferEntries*pairSize),
		}
		f.bins[idx] = bin
	}

	var pair [pairSize]byte
	binary.LittleEndian.PutUint64(pair[:8], address)
	binary.LittleEndian.PutUint64(pair[8:], value)
	bin.pending = append(bin.pending, pair[:]...)

	if len(bin.pending) >= f.bufferEntries*pairSize {
		return bin.spill()
	}
	return nil
}

func (b *funnelBin) spill() error {
	if b.file == nil {
		file, err := os.OpenFile(b.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return errors.Wrapf(err, "create funnel bin %q", b.path)
		}
		b.file = file
	}
	if _, err := b.file.Write(b.pending); err != nil {
		return errors.Wrapf(err, "spill funnel bin %q", b.path)
	}
	b.spilled += uint64(len(b.pending) / pairSize)
	b.pending = b.pending[:0]
	return nil
}

// replay applies the bin's writes in arrival order to staging, which covers
// the words [base, base+staging.Size()).
func (b *funnelBin) replay(staging array.LongArray, base uint64) error {
	apply := func(pairs []byte) error {
		for i := 0; i+pairSize <= len(pairs); i += pairSize {
			address := binary.LittleEndian.Uint64(pairs[i:])
			if address < base || address-base >= staging.Size() {
				return errors.Errorf("funnel bin %q holds foreign address %d", b.path, address)
			}
			staging.Set(address-base, binary.LittleEndian.Uint64(pairs[i+8:]))
		}
		return nil
	}

	if b.file != nil {
		if _, err := b.file.Seek(0, io.SeekStart); err != nil {
			return errors.Wrapf(err, "rewind funnel bin %q", b.path)
		}
		r := bufio.NewReaderSize(b.file, 1<<16)
		chunk := make([]byte, 4096*pairSize)
		var replayed uint64
		for replayed < b.spilled {
			n := b.spilled - replayed
			if n > uint64(len(chunk)/pairSize) {
				n = uint64(len(chunk) / pairSize)
			}
			if _, err := io.ReadFull(r, chunk[:n*pairSize]); err != nil {
				return errors.Wrapf(err, "read funnel bin %q", b.path)
			}
			if err := apply(chunk[:n*pairSize]); err != nil {
				return err
			}
			replayed += n
		}
	}

	return apply(b.pending)
}

func (f *funnel) Write(dest string) (err error) {
	if f.written {
		return errAlreadyWritten
	}
	f.written = true

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %q", tmp)
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(tmp)
		}
	}()

	w := bufio.NewWriterSize(out, 1<<20)
	staging := array.Allocate(min(f.binWords, f.size))
	for i, bin := range f.bins {
		base := uint64(i) * f.binWords
		words := f.binWords
		if base+words > f.size {
			words = f.size - base
		}
		view := staging.Range(0, words)
		clear(view.Bytes())

		if bin != nil {
			if err = bin.replay(view, base); err != nil {
				return err
			}
		}
		if _, err = view.WriteTo(w); err != nil {
			return errors.Wrapf(err, "write %q", tmp)
		}
	}

	if err = w.Flush(); err != nil {
		return errors.Wrapf(err, "flush %q", tmp)
	}
	if err = out.Close(); err != nil {
		return errors.Wrapf(err, "close %q", tmp)
	}
	return diskio.SyncAndRename(tmp, dest)
}

func (f *funnel) Close() error {
	var result *multierror.Error
	for _, bin := range f.bins {
		if bin != nil && bin.file != nil {
			if err := bin.file.Close(); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "close %q", bin.path))
			}
			bin.file = nil
		}
	}
	f.bins = nil
	if err := os.RemoveAll(f.dir); err != nil {
		result = multierror.Append(result, errors.Wrapf(err, "remove %q", f.dir))
	}
	return result.ErrorOrNil()
}

func (f *funnel) Size() uint64 {
	return f.size
}

func (f *funnel) Strategy() Strategy {
	return StrategyFunnel
}
