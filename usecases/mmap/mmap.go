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

package mmap

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

type MMap = mmap.MMap

const (
	RDONLY = mmap.RDONLY
	RDWR   = mmap.RDWR
)

// MapFile maps the complete file. An empty file yields an empty, non-nil
// mapping since the OS refuses zero-length mappings.
func MapFile(f *os.File, prot int) (MMap, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return MMap{}, nil
	}
	return mmap.MapRegion(f, int(info.Size()), prot, 0, 0)
}

// Unmap releases m. Empty mappings created by MapFile are ignored.
func Unmap(m MMap) error {
	if len(m) == 0 {
		return nil
	}
	return m.Unmap()
}
