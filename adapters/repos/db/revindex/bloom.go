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
	"bufio"
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
	"github.com/willf/bloom"
)

const (
	BloomFile = "terms.bloom"

	DefaultBloomFalsePositiveRate = 0.01
)

func bloomKey(termID uint64) []byte {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], termID)
	return key[:]
}

func writeBloom(path string, termIDs []uint64, falsePositiveRate float64) error {
	filter := bloom.NewWithEstimates(uint(max(len(termIDs), 1)), falsePositiveRate)
	for _, termID := range termIDs {
		filter.Add(bloomKey(termID))
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %q", path)
	}
	w := bufio.NewWriter(f)
	if _, err := filter.WriteTo(w); err != nil {
		f.Close()
		return errors.Wrapf(err, "write bloom filter %q", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "write bloom filter %q", path)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrapf(err, "fsync %q", path)
	}
	return f.Close()
}

// readBloom returns nil without an error if the partition has no filter.
func readBloom(path string) (*bloom.BloomFilter, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %q", path)
	}
	defer f.Close()

	filter := &bloom.BloomFilter{}
	if _, err := filter.ReadFrom(bufio.NewReader(f)); err != nil {
		return nil, errors.Wrapf(err, "read bloom filter %q", path)
	}
	return filter, nil
}
