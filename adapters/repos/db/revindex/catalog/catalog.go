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

// Package catalog records which index partitions have been published and how
// they were built.
package catalog

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	enterrors "github.com/weaviate/revindex/entities/errors"
)

const partitionsBucket = "partitions"

const manifestVersion = 1

type Manifest struct {
	Version        uint32    `msgpack:"version" json:"version"`
	Name           string    `msgpack:"name" json:"name"`
	BuildID        string    `msgpack:"build_id" json:"build_id"`
	Backend        string    `msgpack:"backend" json:"backend"`
	Strategy       string    `msgpack:"strategy" json:"strategy"`
	Documents      uint64    `msgpack:"documents" json:"documents"`
	Terms          uint64    `msgpack:"terms" json:"terms"`
	Records        uint64    `msgpack:"records" json:"records"`
	PositionsBytes uint64    `msgpack:"positions_bytes" json:"positions_bytes"`
	BuiltAt        time.Time `msgpack:"built_at" json:"built_at"`
	BuildDuration  float64   `msgpack:"build_duration_seconds" json:"build_duration_seconds"`
}

type Catalog struct {
	db *bolt.DB
}

func Open(path string) (*Catalog, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open %q", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(partitionsBucket))
		if err != nil {
			return errors.Wrap(err, "create bucket")
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init catalog")
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Put(m Manifest) error {
	if m.Name == "" {
		return errors.New("manifest without partition name")
	}
	m.Version = manifestVersion
	data, err := msgpack.Marshal(&m)
	if err != nil {
		return errors.Wrapf(err, "marshal manifest of %q", m.Name)
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(partitionsBucket)).Put([]byte(m.Name), data)
	})
}

// Get returns an ErrNotFound error for unknown partitions.
func (c *Catalog) Get(name string) (*Manifest, error) {
	var m *Manifest
	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(partitionsBucket)).Get([]byte(name))
		if data == nil {
			return enterrors.NewErrNotFound(fmt.Errorf("partition %q is not in the catalog", name))
		}
		var err error
		m, err = unmarshal(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// List returns all manifests ordered by partition name.
func (c *Catalog) List() ([]*Manifest, error) {
	out := []*Manifest{}
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(partitionsBucket)).ForEach(func(_, v []byte) error {
			m, err := unmarshal(v)
			if err != nil {
				return err
			}
			out = append(out, m)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Catalog) Delete(name string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(partitionsBucket)).Delete([]byte(name))
	})
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func unmarshal(data []byte) (*Manifest, error) {
	var m Manifest
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "unmarshal manifest")
	}
	if m.Version != manifestVersion {
		return nil, errors.Errorf("unsupported manifest version %d of %q", m.Version, m.Name)
	}
	return &m, nil
}
