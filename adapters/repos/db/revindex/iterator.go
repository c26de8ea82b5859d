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

package revindex

import (
	"github.com/pkg/errors"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/ordered"
	entrev "github.com/weaviate/revindex/entities/revindex"
)

// DocumentIterator reads the document ids of one posting list in ascending
// order. It is not safe for concurrent use.
type DocumentIterator struct {
	r         *Reader
	it        ordered.Iterator
	remaining uint64
	err       error
}

// HasMore reports whether Read can return more ids.
func (d *DocumentIterator) HasMore() bool {
	return d.remaining > 0 && d.err == nil
}

// Remaining is the number of ids not read yet.
func (d *DocumentIterator) Remaining() uint64 {
	return d.remaining
}

// Read fills buf with the next ids and returns how many it wrote. It returns
// 0 once the iterator is exhausted or failed; see Err.
func (d *DocumentIterator) Read(buf []uint64) int {
	if !d.HasMore() || len(buf) == 0 {
		return 0
	}

	d.r.mu.RLock()
	defer d.r.mu.RUnlock()
	if d.r.closed {
		d.err = entrev.ErrClosed
		return 0
	}

	n := 0
	for n < len(buf) && d.remaining > 0 {
		docID, _, ok := d.it.Next()
		if !ok {
			d.err = d.it.Err()
			if d.err == nil {
				d.err = errors.Wrap(entrev.ErrCorruptBlock, "posting list ended early")
			}
			break
		}
		buf[n] = docID
		n++
		d.remaining--
	}
	return n
}

// Err is the error that ended the iteration early, if any.
func (d *DocumentIterator) Err() error {
	return d.err
}
