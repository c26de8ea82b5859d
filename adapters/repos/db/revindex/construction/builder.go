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

// Package construction builds the files of a reverse index from a batch of
// documents. A build reads the batch twice: the first pass counts the
// records of every term, the second places every record into the word
// segment of its term. The segments are then sorted by document id and
// packed into search structures.
package construction

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/array"
	"github.com/weaviate/revindex/adapters/repos/db/revindex/ordered"
	"github.com/weaviate/revindex/adapters/repos/db/revindex/positions"
	"github.com/weaviate/revindex/adapters/repos/db/revindex/randomwrite"
	"github.com/weaviate/revindex/entities/diskio"
	entrev "github.com/weaviate/revindex/entities/revindex"
	"github.com/weaviate/revindex/usecases/monitoring"
)

const (
	PositionsFile = "positions.dat"
	PostingsFile  = "postings.dat"
	TermsFile     = "terms.dat"

	// records.dat only lives during a build
	recordsFile = "records.dat"
)

const (
	DefaultInlineSortThreshold = 1024
	DefaultProgressInterval    = 30 * time.Second
)

type BuilderConfig struct {
	// Backend packs posting lists and the term index. Defaults to a B-tree.
	Backend ordered.Backend
	// RewriteDocID maps document ids before they are stored, e.g. to make
	// them sort by rank. Defaults to the identity.
	RewriteDocID func(docID uint64) uint64
	Assembler    randomwrite.Options
	// Segments with fewer records are sorted without handing them to a
	// worker.
	InlineSortThreshold int
	SortWorkers         int
	ProgressInterval    time.Duration
}

func (c BuilderConfig) withDefaults() (BuilderConfig, error) {
	if c.Backend == nil {
		backend, err := ordered.NewBackend(ordered.KindBTree, 0)
		if err != nil {
			return c, err
		}
		c.Backend = backend
	}
	if c.RewriteDocID == nil {
		c.RewriteDocID = func(docID uint64) uint64 { return docID }
	}
	if c.InlineSortThreshold <= 0 {
		c.InlineSortThreshold = DefaultInlineSortThreshold
	}
	if c.SortWorkers <= 0 {
		c.SortWorkers = runtime.GOMAXPROCS(0)
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = DefaultProgressInterval
	}
	return c, nil
}

type Result struct {
	Documents      uint64
	Records        uint64
	PositionsBytes uint64
	// TermIDs are the indexed terms in ascending order.
	TermIDs  []uint64
	Strategy randomwrite.Strategy
	Backend  ordered.Kind
}

type Builder struct {
	cfg     BuilderConfig
	logger  logrus.FieldLogger
	metrics *monitoring.Metrics
	sorter  *segmentSorter
}

func NewBuilder(cfg BuilderConfig, logger logrus.FieldLogger, metrics *monitoring.Metrics) (*Builder, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	logger = logger.WithField("action", "revindex_build")
	return &Builder{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		sorter: &segmentSorter{
			logger:           logger,
			metrics:          metrics,
			inlineThreshold:  uint64(cfg.InlineSortThreshold),
			workers:          cfg.SortWorkers,
			progressInterval: cfg.ProgressInterval,
		},
	}, nil
}

// Build writes positions.dat, postings.dat and terms.dat into dir, which
// must exist. On error dir may contain partial files and should be removed by
// the caller.
func (b *Builder) Build(src entrev.DocumentSource, dir string) (*Result, error) {
	started := time.Now()
	res := &Result{Backend: b.cfg.Backend.Kind()}

	phase := time.Now()
	segments, documents, err := b.count(src)
	if err != nil {
		return nil, errors.Wrap(err, "count term occurrences")
	}
	b.metrics.ObserveBuildPhase("count", phase)
	res.Documents = documents
	res.Records = segments.TotalRecords()

	words := segments.TotalSize() / 8
	asm, err := randomwrite.New(dir, words, b.cfg.Assembler, b.logger)
	if err != nil {
		return nil, errors.Wrap(err, "create record assembler")
	}
	defer asm.Close()
	res.Strategy = asm.Strategy()

	phase = time.Now()
	res.PositionsBytes, err = b.scatter(src, segments, asm, filepath.Join(dir, PositionsFile))
	if err != nil {
		return nil, errors.Wrap(err, "scatter document records")
	}
	b.metrics.ObserveBuildPhase("scatter", phase)

	recordsPath := filepath.Join(dir, recordsFile)
	if err := asm.Write(recordsPath); err != nil {
		return nil, errors.Wrap(err, "write document records")
	}
	if err := asm.Close(); err != nil {
		return nil, errors.Wrap(err, "remove scratch files")
	}

	records, err := array.OpenMapped(recordsPath, true)
	if err != nil {
		return nil, err
	}
	defer func() {
		if records != nil {
			records.Close()
		}
		os.Remove(recordsPath)
	}()

	phase = time.Now()
	if err := b.sorter.sort(records.Array(), segments.Segments()); err != nil {
		return nil, errors.Wrap(err, "sort word segments")
	}
	b.metrics.ObserveBuildPhase("sort", phase)

	phase = time.Now()
	res.TermIDs, err = b.pack(records.Array(), segments.Segments(), dir)
	if err != nil {
		return nil, errors.Wrap(err, "pack posting lists")
	}
	b.metrics.ObserveBuildPhase("pack", phase)

	err = records.Close()
	records = nil
	if err != nil {
		return nil, err
	}

	b.logger.WithFields(logrus.Fields{
		"documents":       res.Documents,
		"terms":           len(res.TermIDs),
		"records":         res.Records,
		"positions_bytes": res.PositionsBytes,
		"strategy":        res.Strategy.String(),
		"backend":         res.Backend.String(),
		"took":            time.Since(started),
	}).Info("built reverse index")
	return res, nil
}

func (b *Builder) count(src entrev.DocumentSource) (*Segments, uint64, error) {
	counts := map[uint64]uint64{}
	documents := uint64(0)
	err := src.ForEach(func(doc entrev.Document) error {
		documents++
		for _, occ := range doc.Terms {
			counts[occ.TermID]++
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return NewSegments(counts), documents, nil
}

func (b *Builder) scatter(src entrev.DocumentSource, segments *Segments,
	asm randomwrite.Assembler, positionsPath string,
) (uint64, error) {
	pw, err := positions.NewWriter(positionsPath)
	if err != nil {
		return 0, err
	}

	scattered := 0
	err = src.ForEach(func(doc entrev.Document) error {
		docID := b.cfg.RewriteDocID(doc.DocID)
		for _, occ := range doc.Terms {
			if occ.Count > 0 && len(occ.Positions) > int(occ.Count) {
				b.logger.WithFields(logrus.Fields{
					"doc_id":    doc.DocID,
					"term_id":   occ.TermID,
					"count":     occ.Count,
					"positions": len(occ.Positions),
				}).Warn("term has more positions than counted occurrences")
			}

			key, err := pw.Add(occ.Flags, occ.Positions)
			if err != nil {
				return errors.Wrapf(err, "store positions of term %d in document %d", occ.TermID, doc.DocID)
			}
			offset, err := segments.Next(occ.TermID)
			if err != nil {
				return errors.Wrap(err, "document batch changed between passes")
			}
			word := offset / 8
			if err := asm.Put(word, docID); err != nil {
				return err
			}
			if err := asm.Put(word+1, key); err != nil {
				return err
			}
			scattered++
		}
		return nil
	})
	b.metrics.AddScattered(scattered)
	if err != nil {
		return 0, multierror.Append(err, pw.Close()).ErrorOrNil()
	}
	if err := segments.Filled(); err != nil {
		pw.Close()
		return 0, errors.Wrap(err, "document batch changed between passes")
	}

	size := pw.Size()
	if err := pw.Close(); err != nil {
		return 0, err
	}
	return size, nil
}

// pack writes one posting list per segment into postings.dat and the term
// index pointing at them into terms.dat.
func (b *Builder) pack(records array.LongArray, segments []WordSegment, dir string) ([]uint64, error) {
	terms := array.Allocate(uint64(len(segments)) * 2)
	termIDs := make([]uint64, len(segments))

	err := writeBlockFile(filepath.Join(dir, PostingsFile), b.metrics.WrittenBytes("postings"),
		func(w *ordered.BlockWriter) error {
			for i, seg := range segments {
				root, err := b.cfg.Backend.Transform(w, records.Range(seg.Start/8, seg.End/8))
				if err != nil {
					return errors.Wrapf(err, "posting list of term %d", seg.TermID)
				}
				terms.Set(uint64(i)*2, seg.TermID)
				terms.Set(uint64(i)*2+1, uint64(root))
				termIDs[i] = seg.TermID
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = writeBlockFile(filepath.Join(dir, TermsFile), b.metrics.WrittenBytes("terms"),
		func(w *ordered.BlockWriter) error {
			_, err := b.cfg.Backend.Transform(w, terms)
			return err
		})
	if err != nil {
		return nil, err
	}
	return termIDs, nil
}

// writeBlockFile creates path, lets fn append blocks and syncs the result.
func writeBlockFile(path string, cb diskio.MeteredWriterCallback, fn func(w *ordered.BlockWriter) error) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "create %q", path)
	}

	w := ordered.NewBlockWriter(f, cb)
	if err := fn(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrapf(err, "fsync %q", path)
	}
	return errors.Wrapf(f.Close(), "close %q", path)
}
