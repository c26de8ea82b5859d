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

// Package randomwrite assembles a dense file of 64-bit words whose values
// arrive in an order unrelated to their addresses.
package randomwrite

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pbnjay/memory"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/array"
	"github.com/weaviate/revindex/entities/diskio"
)

// Assembler collects Put calls and materializes them into a file of Size()
// little endian words. Addresses that were never written read as zero.
//
// An Assembler is not safe for concurrent use. Write may be called at most
// once; Close must always be called and removes every scratch artifact.
type Assembler interface {
	Put(address uint64, value uint64) error
	Write(dest string) error
	Close() error
	Size() uint64
	Strategy() Strategy
}

type Strategy int

const (
	// StrategyFunnel buckets writes into per-bin temp files and replays them
	// bin by bin.
	StrategyFunnel Strategy = iota
	// StrategyMmap writes directly into a mapped scratch file.
	StrategyMmap
	// StrategyHeap writes into a process heap buffer.
	StrategyHeap
)

func (s Strategy) String() string {
	switch s {
	case StrategyFunnel:
		return "funnel"
	case StrategyMmap:
		return "mmap"
	case StrategyHeap:
		return "heap"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

const (
	DefaultMMapThresholdBytes = 1 << 30
	DefaultBinWords           = 1 << 20
	DefaultBufferEntries      = 1 << 14
	DefaultMaxHeapMemoryShare = 0.5
)

type Options struct {
	// MMapThresholdBytes is the largest file size assembled through a mapped
	// scratch file. Larger files are assembled on the heap while they fit
	// MaxHeapMemoryShare, otherwise through the funnel.
	MMapThresholdBytes uint64
	// ConserveMemory selects the temp-file funnel regardless of size.
	ConserveMemory bool
	// BinWords is the number of words covered by one funnel bin.
	BinWords uint64
	// BufferEntries is the number of pending writes a funnel bin holds in
	// memory before spilling to its temp file.
	BufferEntries int
	// MaxHeapMemoryShare is the largest share of the machine's memory an
	// in-memory assembly may take. Bigger arrays go through the funnel.
	MaxHeapMemoryShare float64
	// TotalMemoryBytes overrides the detected memory of the machine.
	TotalMemoryBytes uint64
}

func (o Options) withDefaults() Options {
	if o.MMapThresholdBytes == 0 {
		o.MMapThresholdBytes = DefaultMMapThresholdBytes
	}
	if o.BinWords == 0 {
		o.BinWords = DefaultBinWords
	}
	if o.BufferEntries <= 0 {
		o.BufferEntries = DefaultBufferEntries
	}
	if o.MaxHeapMemoryShare <= 0 || o.MaxHeapMemoryShare > 1 {
		o.MaxHeapMemoryShare = DefaultMaxHeapMemoryShare
	}
	if o.TotalMemoryBytes == 0 {
		o.TotalMemoryBytes = memory.TotalMemory()
	}
	return o
}

// heapBudget is the number of bytes an in-memory assembly may use. 0 means
// the memory of the machine is unknown and no limit applies.
func (o Options) heapBudget() uint64 {
	return uint64(float64(o.TotalMemoryBytes) * o.MaxHeapMemoryShare)
}

// SelectStrategy is the policy New applies for an array of size words.
func SelectStrategy(size uint64, opts Options) Strategy {
	opts = opts.withDefaults()
	switch {
	case opts.ConserveMemory:
		return StrategyFunnel
	case size*8 < opts.MMapThresholdBytes:
		return StrategyMmap
	case opts.heapBudget() > 0 && size*8 > opts.heapBudget():
		return StrategyFunnel
	default:
		return StrategyHeap
	}
}

// New creates an Assembler for size words. Scratch files are placed in
// scratchDir, which must be on the same file system as the destination
// passed to Write.
func New(scratchDir string, size uint64, opts Options, logger logrus.FieldLogger) (Assembler, error) {
	opts = opts.withDefaults()
	strategy := SelectStrategy(size, opts)

	logger.WithField("action", "random_write_assembler").
		WithField("strategy", strategy.String()).
		WithField("words", size).
		Debug("create assembler")

	switch strategy {
	case StrategyFunnel:
		return newFunnel(scratchDir, size, opts.BinWords, opts.BufferEntries)
	case StrategyMmap:
		return newMmapped(scratchDir, size)
	default:
		return newHeap(size), nil
	}
}

func addressError(address, size uint64) error {
	return errors.Errorf("address %d out of range for assembler of %d words", address, size)
}

var errAlreadyWritten = errors.New("assembler was already written")

// writeArrayAtomically streams arr into dest through a temp file.
func writeArrayAtomically(arr array.LongArray, dest string) (err error) {
	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %q", tmp)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	w := bufio.NewWriterSize(f, 1<<20)
	if _, err = arr.WriteTo(w); err != nil {
		return errors.Wrapf(err, "write %q", tmp)
	}
	if err = w.Flush(); err != nil {
		return errors.Wrapf(err, "flush %q", tmp)
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "close %q", tmp)
	}
	return diskio.SyncAndRename(tmp, dest)
}
