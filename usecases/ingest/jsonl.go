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

// Package ingest reads document batches produced by a keyword extractor.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/pkg/errors"
	"github.com/spaolacci/murmur3"

	enterrors "github.com/weaviate/revindex/entities/errors"
	entrev "github.com/weaviate/revindex/entities/revindex"
)

const maxLineBytes = 64 << 20

// HashTerm maps a keyword to its term id.
func HashTerm(term string) uint64 {
	h := murmur3.New64()
	h.Write([]byte(term))
	return h.Sum64()
}

type jsonDocument struct {
	ID    uint64     `json:"id"`
	Terms []jsonTerm `json:"terms"`
}

type jsonTerm struct {
	Term      string   `json:"term,omitempty"`
	TermID    *uint64  `json:"term_id,omitempty"`
	Flags     byte     `json:"flags"`
	Positions []uint32 `json:"positions"`
	Count     uint32   `json:"count"`
}

// JSONLSource reads one document per line of a file, for example
//
//	{"id":100,"terms":[{"term":"foo","flags":3,"positions":[1,3],"count":2}]}
//
// A term is given either as a keyword, which is hashed, or directly as a
// term_id. Every ForEach call reads the file again from the start.
type JSONLSource struct {
	path string
}

func NewJSONLSource(path string) *JSONLSource {
	return &JSONLSource{path: path}
}

func (s *JSONLSource) ForEach(fn func(doc entrev.Document) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		return errors.Wrapf(err, "open document batch %q", s.path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		doc, err := ParseDocument(raw)
		if err != nil {
			return enterrors.NewErrUnprocessable(fmt.Errorf("%s:%d: %w", s.path, line, err))
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "read document batch %q", s.path)
	}
	return nil
}

// ParseDocument decodes a single JSON document.
func ParseDocument(raw []byte) (entrev.Document, error) {
	var in jsonDocument
	if err := json.Unmarshal(raw, &in); err != nil {
		return entrev.Document{}, err
	}

	doc := entrev.Document{DocID: in.ID, Terms: make([]entrev.TermOccurrence, len(in.Terms))}
	seen := make(map[uint64]struct{}, len(in.Terms))
	for i, t := range in.Terms {
		var termID uint64
		switch {
		case t.Term != "" && t.TermID != nil:
			return entrev.Document{}, fmt.Errorf("term %d of document %d has both term and term_id", i, in.ID)
		case t.Term != "":
			termID = HashTerm(t.Term)
		case t.TermID != nil:
			termID = *t.TermID
		default:
			return entrev.Document{}, fmt.Errorf("term %d of document %d has neither term nor term_id", i, in.ID)
		}
		if _, ok := seen[termID]; ok {
			return entrev.Document{}, fmt.Errorf("term id %d occurs twice in document %d", termID, in.ID)
		}
		seen[termID] = struct{}{}

		positions := slices.Clone(t.Positions)
		if positions == nil {
			positions = []uint32{}
		}
		slices.Sort(positions)
		doc.Terms[i] = entrev.TermOccurrence{
			TermID:    termID,
			Flags:     t.Flags,
			Positions: positions,
			Count:     t.Count,
		}
	}
	return doc, nil
}
