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

// Package revindex serves lookups on a built reverse index and publishes
// builds as named partitions.
package revindex

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/weaviate/sroar"
	"github.com/willf/bloom"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/construction"
	"github.com/weaviate/revindex/adapters/repos/db/revindex/contentReader"
	"github.com/weaviate/revindex/adapters/repos/db/revindex/ordered"
	"github.com/weaviate/revindex/adapters/repos/db/revindex/positions"
	entrev "github.com/weaviate/revindex/entities/revindex"
	"github.com/weaviate/revindex/usecases/monitoring"
)

type ReaderOptions struct {
	// AvoidMmap reads the index files with pread through a page cache
	// instead of mapping them.
	AvoidMmap bool
}

// Reader answers queries on the files of one built index. Queries may run
// concurrently; they only synchronize with Close.
type Reader struct {
	dir     string
	logger  logrus.FieldLogger
	metrics *monitoring.Metrics

	// mu guards closed and the validity of the mappings below
	mu        sync.RWMutex
	closed    bool
	termsFile contentReader.ContentReader
	terms     ordered.Index // nil if the index has no terms
	postings  contentReader.ContentReader
	positions *positions.Reader
	filter    *bloom.BloomFilter
}

func Open(dir string, opts ReaderOptions, logger logrus.FieldLogger, metrics *monitoring.Metrics) (_ *Reader, err error) {
	r := &Reader{
		dir:     dir,
		logger:  logger.WithField("action", "revindex_read").WithField("dir", dir),
		metrics: metrics,
	}
	defer func() {
		if err != nil {
			r.closeFiles()
		}
	}()

	r.termsFile, err = contentReader.Open(filepath.Join(dir, construction.TermsFile), opts.AvoidMmap)
	if err != nil {
		return nil, errors.Wrap(err, "open term index")
	}
	if r.termsFile.Length() > 0 {
		r.terms, err = ordered.Open(r.termsFile, 0)
		if err != nil {
			return nil, errors.Wrap(err, "open term index")
		}
	}

	r.postings, err = contentReader.Open(filepath.Join(dir, construction.PostingsFile), opts.AvoidMmap)
	if err != nil {
		return nil, errors.Wrap(err, "open posting lists")
	}

	r.positions, err = positions.OpenReader(filepath.Join(dir, construction.PositionsFile), opts.AvoidMmap)
	if err != nil {
		return nil, err
	}

	r.filter, err = readBloom(filepath.Join(dir, BloomFile))
	if err != nil {
		return nil, err
	}

	terms := uint64(0)
	if r.terms != nil {
		terms = r.terms.NumEntries()
	}
	r.logger.WithFields(logrus.Fields{
		"terms":      terms,
		"avoid_mmap": opts.AvoidMmap,
		"bloom":      r.filter != nil,
	}).Debug("opened reverse index")
	return r, nil
}

// postingList returns the posting list of termID, or nil if the term is not
// indexed. The caller must hold the read lock.
func (r *Reader) postingList(termID uint64) (ordered.Index, string, error) {
	if r.filter != nil && !r.filter.Test(bloomKey(termID)) {
		return nil, monitoring.ResultFiltered, nil
	}
	if r.terms == nil {
		return nil, monitoring.ResultMiss, nil
	}

	root, ok, err := r.terms.Get(termID)
	if err != nil {
		return nil, monitoring.ResultError, errors.Wrapf(err, "look up term %d", termID)
	}
	if !ok {
		return nil, monitoring.ResultMiss, nil
	}

	list, err := ordered.Open(r.postings, int64(root))
	if err != nil {
		return nil, monitoring.ResultError, errors.Wrapf(err, "open posting list of term %d", termID)
	}
	return list, monitoring.ResultHit, nil
}

// NumDocuments is the number of documents containing termID, 0 if the term is
// unknown.
func (r *Reader) NumDocuments(termID uint64) (int, error) {
	started := time.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return 0, entrev.ErrClosed
	}

	list, result, err := r.postingList(termID)
	r.metrics.Lookup("num_documents", result, started)
	if err != nil || list == nil {
		return 0, err
	}
	return int(list.NumEntries()), nil
}

// Documents returns a fresh iterator over the ids of the documents
// containing termID in ascending order. Unknown terms yield an exhausted
// iterator.
func (r *Reader) Documents(termID uint64) (*DocumentIterator, error) {
	started := time.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, entrev.ErrClosed
	}

	list, result, err := r.postingList(termID)
	r.metrics.Lookup("documents", result, started)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return &DocumentIterator{}, nil
	}
	return &DocumentIterator{r: r, it: list.Iterator(), remaining: list.NumEntries()}, nil
}

// TermData returns the flags and positions of termID in each of docIDs. The
// result has one slot per requested document; slots of documents that do not
// contain the term are nil.
func (r *Reader) TermData(termID uint64, docIDs []uint64) ([]*entrev.TermData, error) {
	started := time.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, entrev.ErrClosed
	}

	out := make([]*entrev.TermData, len(docIDs))
	list, result, err := r.postingList(termID)
	if err != nil || list == nil {
		r.metrics.Lookup("term_data", result, started)
		return out, err
	}

	for i, docID := range docIDs {
		key, ok, err := list.Get(docID)
		if err != nil {
			r.metrics.Lookup("term_data", monitoring.ResultError, started)
			return nil, errors.Wrapf(err, "look up document %d of term %d", docID, termID)
		}
		if !ok {
			continue
		}
		flags, pos, err := r.positions.Get(key)
		if err != nil {
			r.metrics.Lookup("term_data", monitoring.ResultError, started)
			return nil, errors.Wrapf(err, "positions of term %d in document %d", termID, docID)
		}
		out[i] = &entrev.TermData{DocID: docID, Flags: flags, Positions: pos}
	}
	r.metrics.Lookup("term_data", result, started)
	return out, nil
}

// DocumentBitmap returns the ids of the documents containing termID as a
// bitmap, empty for unknown terms.
func (r *Reader) DocumentBitmap(termID uint64) (*sroar.Bitmap, error) {
	started := time.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, entrev.ErrClosed
	}

	bm := sroar.NewBitmap()
	list, result, err := r.postingList(termID)
	r.metrics.Lookup("document_bitmap", result, started)
	if err != nil || list == nil {
		return bm, err
	}

	it := list.Iterator()
	for {
		docID, _, ok := it.Next()
		if !ok {
			break
		}
		bm.Set(docID)
	}
	if err := it.Err(); err != nil {
		return nil, errors.Wrapf(err, "read posting list of term %d", termID)
	}
	return bm, nil
}

// Close waits for running queries and releases all files. Every later call
// returns ErrClosed.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.closeFiles()
}

func (r *Reader) closeFiles() error {
	var result *multierror.Error
	if r.termsFile != nil {
		result = multierror.Append(result, r.termsFile.Close())
	}
	if r.postings != nil {
		result = multierror.Append(result, r.postings.Close())
	}
	if r.positions != nil {
		result = multierror.Append(result, r.positions.Close())
	}
	r.terms = nil
	return result.ErrorOrNil()
}
