// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package pipeline

import "github.com/habistat/habistat/internal/frame"

// featureAliases is the fixed table of known naming aliases between the
// encoded city column as produced and as some models declare it. Alias
// resolution is deterministic renaming against this table only, not a
// general renaming mechanism.
var featureAliases = [][2]string{
	{"city_full_encoded", "city_encoded"},
}

// resolveAliases renames batch columns so that each alias pair matches the
// expected column set. For a pair (a, b): a batch column a becomes b when
// the expectation names b but not a, and vice versa. Run once against the
// training schema before reindexing (so the misnamed column is not dropped)
// and once against the model's declared feature names before prediction.
func resolveAliases(f *frame.Frame, expected []string) {
	want := make(map[string]bool, len(expected))
	for _, name := range expected {
		want[name] = true
	}
	for _, pair := range featureAliases {
		a, b := pair[0], pair[1]
		switch {
		case f.Has(a) && want[b] && !want[a]:
			f.Rename(a, b)
		case f.Has(b) && want[a] && !want[b]:
			f.Rename(b, a)
		}
	}
}

// align reindexes the batch to exactly the schema's column order and
// membership, inserting missing columns as zero and dropping extras.
// It returns the inserted and dropped column names.
func align(f *frame.Frame, schema []string) (filled, dropped []string) {
	resolveAliases(f, schema)
	return f.Reindex(schema, frame.Num(0))
}
