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
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/contentReader"
)

// Reader resolves keys produced by Writer. It is safe for concurrent use.
type Reader struct {
	contents contentReader.ContentReader
}

func OpenReader(path string, avoidMmap bool) (*Reader, error) {
	contents, err := contentReader.Open(path, avoidMmap)
	if err != nil {
		return nil, errors.Wrap(err, "open positions file")
	}
	return NewReader(contents), nil
}

func NewReader(contents contentReader.ContentReader) *Reader {
	return &Reader{contents: contents}
}

// Get returns the flags and positions stored under key.
func (r *Reader) Get(key uint64) (byte, []uint32, error) {
	offset, size := splitKey(key)
	length := r.contents.Length()
	if offset >= length {
		return 0, nil, fmt.Errorf("positions key %#x points past the end of the file", key)
	}

	// without a size in the key, read enough to cover the longest varint
	readLen := size
	if readLen == 0 {
		readLen = min(binary.MaxVarintLen64+1, length-offset)
	}
	head, _, err := r.contents.ReadRange(offset, readLen, nil)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "read positions record %#x", key)
	}

	payloadLen, n := binary.Uvarint(head)
	if n <= 0 || payloadLen == 0 {
		return 0, nil, errors.Wrapf(ErrCorruptSequence, "positions record %#x has no valid length", key)
	}
	if size != 0 && uint64(n)+payloadLen != size {
		return 0, nil, errors.Wrapf(ErrCorruptSequence, "positions record %#x length %d does not match key", key, payloadLen)
	}

	payload, _, err := r.contents.ReadRange(offset+uint64(n), payloadLen, nil)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "read positions record %#x", key)
	}

	positions, err := Decode(payload[1:])
	if err != nil {
		return 0, nil, errors.Wrapf(err, "decode positions record %#x", key)
	}
	return payload[0], positions, nil
}

func (r *Reader) Close() error {
	return r.contents.Close()
}
