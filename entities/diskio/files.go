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

package diskio

import (
	"fmt"
	"os"
	"path/filepath"
)

func FileExists(file string) (bool, error) {
	_, err := os.Stat(file)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Fsync flushes a file or directory to stable storage.
func Fsync(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Sync()
}

// SyncAndRename fsyncs the file at tmpPath, renames it onto finalPath and
// fsyncs the parent directory so the rename itself is durable. Readers either
// see the complete file at finalPath or no file at all.
func SyncAndRename(tmpPath, finalPath string) error {
	if err := Fsync(tmpPath); err != nil {
		return fmt.Errorf("fsync %q: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("rename %q to %q: %w", tmpPath, finalPath, err)
	}
	if err := Fsync(filepath.Dir(finalPath)); err != nil {
		return fmt.Errorf("fsync parent of %q: %w", finalPath, err)
	}
	return nil
}
