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

// revindex builds keyword reverse indexes from document batches and answers
// lookups against them.
package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

func newParser() *flags.Parser {
	parser := flags.NewParser(&globalFlags, flags.Default)
	parser.ShortDescription = "keyword reverse index"

	commands := []struct {
		name, short, long string
		data              any
	}{
		{"build", "Build a partition", "Builds a partition from a JSON lines document batch and publishes it, replacing a previous build of the same name.", &buildCommand{}},
		{"query", "Look up a term", "Prints the number of documents containing a term, their ids, and optionally the term data of selected documents.", &queryCommand{}},
		{"list", "List partitions", "Prints the manifests of all published partitions.", &listCommand{}},
		{"drop", "Delete a partition", "Deletes a partition and its catalog entry.", &dropCommand{}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			panic(err)
		}
	}
	return parser
}

func main() {
	if _, err := newParser().Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
