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

package ordered

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/array"
	"github.com/weaviate/revindex/entities/diskio"
)

// BlockWriter appends blocks to a file and keeps track of the current
// offset, which is what Transform returns as the root of a block.
type BlockWriter struct {
	buf     *bufio.Writer
	metered *diskio.MeteredWriter
	scratch [headerSize]byte
}

// NewBlockWriter writes to w, which must be positioned at offset 0. cb, if
// set, is called with the size of every write.
func NewBlockWriter(w io.Writer, cb diskio.MeteredWriterCallback) *BlockWriter {
	buf := bufio.NewWriterSize(w, 1<<16)
	return &BlockWriter{
		buf:     buf,
		metered: diskio.NewMeteredWriter(buf, cb),
	}
}

func (b *BlockWriter) Offset() int64 {
	return b.metered.Written()
}

func (b *BlockWriter) write(p []byte) error {
	if _, err := b.metered.Write(p); err != nil {
		return errors.Wrap(err, "write block")
	}
	return nil
}

func (b *BlockWriter) writeHeader(h header) error {
	h.marshal(b.scratch[:headerSize])
	return b.write(b.scratch[:headerSize])
}

func (b *BlockWriter) WriteUint64(v uint64) error {
	binary.LittleEndian.PutUint64(b.scratch[:8], v)
	return b.write(b.scratch[:8])
}

func (b *BlockWriter) WriteUint32(v uint32) error {
	binary.LittleEndian.PutUint32(b.scratch[:4], v)
	return b.write(b.scratch[:4])
}

// WriteWords copies the view as is.
func (b *BlockWriter) WriteWords(a array.LongArray) error {
	if _, err := a.WriteTo(b.metered); err != nil {
		return errors.Wrap(err, "write block")
	}
	return nil
}

func (b *BlockWriter) Flush() error {
	return errors.Wrap(b.buf.Flush(), "flush block writer")
}
