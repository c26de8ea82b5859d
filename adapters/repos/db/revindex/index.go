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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/revindex/adapters/repos/db/revindex/catalog"
	"github.com/weaviate/revindex/adapters/repos/db/revindex/construction"
	"github.com/weaviate/revindex/entities/diskio"
	enterrors "github.com/weaviate/revindex/entities/errors"
	entrev "github.com/weaviate/revindex/entities/revindex"
	"github.com/weaviate/revindex/usecases/monitoring"
)

const (
	CatalogFile = "catalog.db"

	stagingPrefix = ".staging-"
	retiredPrefix = ".retired-"
)

type IndexConfig struct {
	Build                  construction.BuilderConfig
	BloomFalsePositiveRate float64
	Reader                 ReaderOptions
}

// Index manages the partitions below one root directory. Every partition is
// a complete, immutable reverse index that is replaced as a whole when it is
// rebuilt.
type Index struct {
	root    string
	cfg     IndexConfig
	logger  logrus.FieldLogger
	metrics *monitoring.Metrics
	catalog *catalog.Catalog

	// publishLock serializes the swap of partition directories
	publishLock sync.Mutex
}

func NewIndex(root string, cfg IndexConfig, logger logrus.FieldLogger, metrics *monitoring.Metrics) (*Index, error) {
	if cfg.BloomFalsePositiveRate <= 0 || cfg.BloomFalsePositiveRate >= 1 {
		cfg.BloomFalsePositiveRate = DefaultBloomFalsePositiveRate
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create index root %q", root)
	}

	idx := &Index{
		root:    root,
		cfg:     cfg,
		logger:  logger.WithField("action", "revindex_partitions").WithField("root", root),
		metrics: metrics,
	}
	if err := idx.removeLeftovers(); err != nil {
		return nil, err
	}

	cat, err := catalog.Open(filepath.Join(root, CatalogFile))
	if err != nil {
		return nil, err
	}
	idx.catalog = cat
	return idx, nil
}

// removeLeftovers deletes staging and retired directories of builds that
// were interrupted.
func (i *Index) removeLeftovers() error {
	entries, err := os.ReadDir(i.root)
	if err != nil {
		return errors.Wrapf(err, "list index root %q", i.root)
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || !(strings.HasPrefix(name, stagingPrefix) || strings.HasPrefix(name, retiredPrefix)) {
			continue
		}
		i.logger.WithField("dir", name).Warn("removing leftovers of an interrupted build")
		if err := os.RemoveAll(filepath.Join(i.root, name)); err != nil {
			return errors.Wrapf(err, "remove %q", name)
		}
	}
	return nil
}

func validatePartitionName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return enterrors.NewErrUnprocessable(fmt.Errorf("invalid partition name %q", name))
	}
	if name == CatalogFile {
		return enterrors.NewErrUnprocessable(fmt.Errorf("partition name %q is reserved", name))
	}
	return nil
}

// BuildPartition builds the documents of src and publishes them as partition
// name, replacing a previous build of the same name. Nothing is published if
// the build fails.
func (i *Index) BuildPartition(name string, src entrev.DocumentSource) (_ *catalog.Manifest, err error) {
	if err := validatePartitionName(name); err != nil {
		return nil, err
	}

	started := time.Now()
	buildID := uuid.NewString()
	logger := i.logger.WithField("partition", name).WithField("build_id", buildID)

	staging := filepath.Join(i.root, stagingPrefix+buildID)
	if err := os.Mkdir(staging, 0o755); err != nil {
		return nil, errors.Wrap(err, "create staging directory")
	}
	defer func() {
		if err != nil {
			if rmErr := os.RemoveAll(staging); rmErr != nil {
				logger.WithError(rmErr).Error("remove staging directory")
			}
		}
	}()

	builder, err := construction.NewBuilder(i.cfg.Build, logger, i.metrics)
	if err != nil {
		return nil, err
	}
	res, err := builder.Build(src, staging)
	if err != nil {
		return nil, errors.Wrapf(err, "build partition %q", name)
	}
	if err := writeBloom(filepath.Join(staging, BloomFile), res.TermIDs, i.cfg.BloomFalsePositiveRate); err != nil {
		return nil, err
	}
	if err := diskio.Fsync(staging); err != nil {
		return nil, errors.Wrap(err, "fsync staging directory")
	}

	if err := i.publish(staging, name, buildID); err != nil {
		return nil, err
	}

	m := catalog.Manifest{
		Name:           name,
		BuildID:        buildID,
		Backend:        res.Backend.String(),
		Strategy:       res.Strategy.String(),
		Documents:      res.Documents,
		Terms:          uint64(len(res.TermIDs)),
		Records:        res.Records,
		PositionsBytes: res.PositionsBytes,
		BuiltAt:        time.Now().UTC(),
		BuildDuration:  time.Since(started).Seconds(),
	}
	if err := i.catalog.Put(m); err != nil {
		// the partition is live already, only its record is missing
		logger.WithError(err).Error("record partition in catalog")
		return nil, errors.Wrapf(err, "record partition %q", name)
	}
	i.metrics.PublishedPartition()

	logger.WithFields(logrus.Fields{
		"documents": m.Documents,
		"terms":     m.Terms,
		"took":      time.Since(started),
	}).Info("published partition")
	return &m, nil
}

// publish moves the staging directory to its final name. A previous build is
// moved aside first and deleted once the new one is in place.
func (i *Index) publish(staging, name, buildID string) error {
	i.publishLock.Lock()
	defer i.publishLock.Unlock()

	final := filepath.Join(i.root, name)
	retired := ""
	exists, err := diskio.FileExists(final)
	if err != nil {
		return errors.Wrapf(err, "stat partition %q", name)
	}
	if exists {
		retired = filepath.Join(i.root, retiredPrefix+buildID)
		if err := os.Rename(final, retired); err != nil {
			return errors.Wrapf(err, "retire previous build of %q", name)
		}
	}

	if err := os.Rename(staging, final); err != nil {
		if retired != "" {
			if restoreErr := os.Rename(retired, final); restoreErr != nil {
				i.logger.WithError(restoreErr).WithField("partition", name).
					Error("restore previous build")
			}
		}
		return errors.Wrapf(err, "publish partition %q", name)
	}
	if err := diskio.Fsync(i.root); err != nil {
		return errors.Wrap(err, "fsync index root")
	}

	if retired != "" {
		if err := os.RemoveAll(retired); err != nil {
			i.logger.WithError(err).WithField("partition", name).
				Warn("remove previous build")
		}
	}
	return nil
}

// OpenPartition opens a reader on a published partition.
func (i *Index) OpenPartition(name string) (*Reader, error) {
	if err := validatePartitionName(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(i.root, name)
	exists, err := diskio.FileExists(dir)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, enterrors.NewErrNotFound(fmt.Errorf("partition %q does not exist", name))
	}
	return Open(dir, i.cfg.Reader, i.logger, i.metrics)
}

func (i *Index) Partition(name string) (*catalog.Manifest, error) {
	return i.catalog.Get(name)
}

func (i *Index) Partitions() ([]*catalog.Manifest, error) {
	return i.catalog.List()
}

// DropPartition deletes a partition. Open readers keep working on the
// deleted files until they are closed.
func (i *Index) DropPartition(name string) error {
	if err := validatePartitionName(name); err != nil {
		return err
	}
	i.publishLock.Lock()
	defer i.publishLock.Unlock()

	if err := i.catalog.Delete(name); err != nil {
		return err
	}
	return errors.Wrapf(os.RemoveAll(filepath.Join(i.root, name)), "remove partition %q", name)
}

func (i *Index) Close() error {
	return i.catalog.Close()
}
