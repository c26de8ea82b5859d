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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncAndRename(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, "file.tmp")
	final := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(tmp, []byte("hello"), 0o644))

	require.NoError(t, SyncAndRename(tmp, final))

	exists, err := FileExists(tmp)
	require.NoError(t, err)
	assert.False(t, exists)

	content, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content)
}

func TestMeteredWriter(t *testing.T) {
	var buf bytes.Buffer
	var reported int64
	w := NewMeteredWriter(&buf, func(n int64) { reported += n })

	_, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = w.Write([]byte("defg"))
	require.NoError(t, err)

	assert.Equal(t, int64(7), w.Written())
	assert.Equal(t, int64(7), reported)
	assert.Equal(t, "abcdefg", buf.String())
}
