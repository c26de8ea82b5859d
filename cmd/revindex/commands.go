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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	enterrors "github.com/weaviate/revindex/entities/errors"
	"github.com/weaviate/revindex/usecases/config"
	"github.com/weaviate/revindex/usecases/ingest"
)

var (
	globalFlags config.Flags

	stdout io.Writer = os.Stdout
)

func withAppState(fn func(s *appState) error) (err error) {
	s, err := makeAppState(&globalFlags)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(s)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type buildCommand struct {
	Partition string `long:"partition" short:"p" required:"true" description:"name of the partition to build or replace"`

	Args struct {
		Batch string `positional-arg-name:"batch" description:"JSON lines file holding one document per line"`
	} `positional-args:"yes" required:"yes"`
}

func (c *buildCommand) Execute(_ []string) error {
	return withAppState(func(s *appState) error {
		m, err := s.index.BuildPartition(c.Partition, ingest.NewJSONLSource(c.Args.Batch))
		if err != nil {
			return err
		}
		return writeJSON(m)
	})
}

type queryCommand struct {
	Partition string   `long:"partition" short:"p" required:"true" description:"partition to query"`
	Term      string   `long:"term" description:"keyword, hashed the same way as during ingestion"`
	TermID    string   `long:"term-id" description:"numeric term id"`
	Docs      []uint64 `long:"doc" description:"document whose term data is returned, may be repeated"`
	Limit     int      `long:"limit" default:"100" description:"maximum number of document ids listed, 0 lists all"`
}

type termDataJSON struct {
	DocID     uint64   `json:"doc_id"`
	Flags     byte     `json:"flags"`
	Positions []uint32 `json:"positions"`
}

type queryResult struct {
	TermID    uint64          `json:"term_id"`
	Documents int             `json:"documents"`
	DocIDs    []uint64        `json:"doc_ids"`
	Truncated bool            `json:"truncated,omitempty"`
	TermData  []*termDataJSON `json:"term_data,omitempty"`
}

func (c *queryCommand) termID() (uint64, error) {
	switch {
	case c.Term != "" && c.TermID != "":
		return 0, enterrors.NewErrUnprocessable(errors.New("use either --term or --term-id"))
	case c.Term != "":
		return ingest.HashTerm(c.Term), nil
	case c.TermID != "":
		id, err := strconv.ParseUint(c.TermID, 10, 64)
		if err != nil {
			return 0, enterrors.NewErrUnprocessable(fmt.Errorf("parse --term-id: %w", err))
		}
		return id, nil
	default:
		return 0, enterrors.NewErrUnprocessable(errors.New("one of --term or --term-id is required"))
	}
}

func (c *queryCommand) Execute(_ []string) error {
	termID, err := c.termID()
	if err != nil {
		return err
	}
	if c.Limit < 0 {
		return enterrors.NewErrUnprocessable(fmt.Errorf("--limit must not be negative, got %d", c.Limit))
	}

	return withAppState(func(s *appState) error {
		r, err := s.index.OpenPartition(c.Partition)
		if err != nil {
			return err
		}
		defer r.Close()

		res := queryResult{TermID: termID, DocIDs: []uint64{}}
		if res.Documents, err = r.NumDocuments(termID); err != nil {
			return err
		}

		it, err := r.Documents(termID)
		if err != nil {
			return err
		}
		buf := make([]uint64, 256)
		for it.HasMore() {
			if c.Limit > 0 && len(res.DocIDs) >= c.Limit {
				res.Truncated = true
				break
			}
			want := len(buf)
			if c.Limit > 0 {
				want = min(want, c.Limit-len(res.DocIDs))
			}
			n := it.Read(buf[:want])
			if n == 0 {
				break
			}
			res.DocIDs = append(res.DocIDs, buf[:n]...)
		}
		if err := it.Err(); err != nil {
			return err
		}

		if len(c.Docs) > 0 {
			data, err := r.TermData(termID, c.Docs)
			if err != nil {
				return err
			}
			res.TermData = make([]*termDataJSON, len(data))
			for i, d := range data {
				if d != nil {
					res.TermData[i] = &termDataJSON{DocID: d.DocID, Flags: d.Flags, Positions: d.Positions}
				}
			}
		}
		return writeJSON(res)
	})
}

type listCommand struct{}

func (c *listCommand) Execute(_ []string) error {
	return withAppState(func(s *appState) error {
		partitions, err := s.index.Partitions()
		if err != nil {
			return err
		}
		return writeJSON(partitions)
	})
}

type dropCommand struct {
	Partition string `long:"partition" short:"p" required:"true" description:"partition to delete"`
}

func (c *dropCommand) Execute(_ []string) error {
	return withAppState(func(s *appState) error {
		if err := s.index.DropPartition(c.Partition); err != nil {
			return err
		}
		s.logger.WithField("action", "revindex_drop").WithField("partition", c.Partition).
			Info("dropped partition")
		return nil
	})
}
