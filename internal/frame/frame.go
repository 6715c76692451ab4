// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

// Package frame implements the record batch flowing through the inference
// pipeline: an ordered set of named columns of equal length, each holding
// scalar values (number, string, or null). Row order is significant and is
// preserved by every operation unless a row is explicitly dropped.
package frame

import (
	"fmt"
	"sort"
	"strconv"
)

// Kind discriminates the scalar value types a cell may hold.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
)

// Value is a single cell: a number, a string, or null.
type Value struct {
	kind Kind
	num  float64
	str  string
}

// Null returns the null value.
func Null() Value { return Value{} }

// Num returns a numeric value.
func Num(f float64) Value { return Value{kind: KindNumber, num: f} }

// Str returns a string value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric content. Strings that parse as numbers are
// converted; anything else yields zero (the pipeline's neutral fill).
func (v Value) Float() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		if f, err := strconv.ParseFloat(v.str, 64); err == nil {
			return f
		}
	}
	return 0
}

// Text returns the string content; numbers are formatted, null is "".
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	}
	return ""
}

// key returns a canonical representation used for row deduplication.
func (v Value) key() string {
	switch v.kind {
	case KindNumber:
		return "n:" + strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return "s:" + v.str
	}
	return "0"
}

// Frame is an ordered collection of equally sized columns.
// The zero Frame is empty and ready to use via its methods.
type Frame struct {
	order   []string
	columns map[string][]Value
	rows    int
}

// New returns an empty frame.
func New() *Frame {
	return &Frame{columns: make(map[string][]Value)}
}

// FromRecords builds a frame from row-oriented records. Column order follows
// first appearance across the records; cells absent from a record are null.
func FromRecords(records []map[string]Value) *Frame {
	f := New()
	f.rows = len(records)
	for _, rec := range records {
		for col := range rec {
			if _, ok := f.columns[col]; !ok {
				f.order = append(f.order, col)
				f.columns[col] = make([]Value, len(records))
			}
		}
	}
	// Deterministic order within a record is not guaranteed by map
	// iteration; sort columns discovered in the same record pass.
	sortNewColumns(f, records)
	for i, rec := range records {
		for col, vals := range f.columns {
			if v, ok := rec[col]; ok {
				vals[i] = v
			}
		}
	}
	return f
}

// sortNewColumns orders columns by the first record index they appear in,
// then lexicographically within the same record.
func sortNewColumns(f *Frame, records []map[string]Value) {
	first := make(map[string]int, len(f.order))
	for col := range f.columns {
		first[col] = len(records)
	}
	for i, rec := range records {
		for col := range rec {
			if i < first[col] {
				first[col] = i
			}
		}
	}
	sort.SliceStable(f.order, func(a, b int) bool {
		if first[f.order[a]] != first[f.order[b]] {
			return first[f.order[a]] < first[f.order[b]]
		}
		return f.order[a] < f.order[b]
	})
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return f.rows }

// NumColumns returns the number of columns.
func (f *Frame) NumColumns() int { return len(f.order) }

// Columns returns the column names in order. The slice is a copy.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.columns[name]
	return ok
}

// Column returns the values of a column in row order. The slice is shared;
// callers must not mutate it.
func (f *Frame) Column(name string) ([]Value, bool) {
	vals, ok := f.columns[name]
	return vals, ok
}

// SetColumn adds or replaces a column. New columns append to the column
// order. On a frame with rows or columns the length must match the row
// count; only a fresh frame takes its row count from the first column.
func (f *Frame) SetColumn(name string, values []Value) error {
	if (len(f.order) > 0 || f.rows > 0) && len(values) != f.rows {
		return fmt.Errorf("column %s has %d values, frame has %d rows", name, len(values), f.rows)
	}
	if _, ok := f.columns[name]; !ok {
		f.order = append(f.order, name)
	}
	if f.rows == 0 {
		f.rows = len(values)
	}
	f.columns[name] = values
	return nil
}

// SetNumbers adds or replaces a column from a float slice.
func (f *Frame) SetNumbers(name string, values []float64) error {
	vals := make([]Value, len(values))
	for i, v := range values {
		vals[i] = Num(v)
	}
	return f.SetColumn(name, vals)
}

// Drop removes the named columns. Missing names are ignored. The row count
// is preserved even when the last column is removed; only row operations
// change it.
func (f *Frame) Drop(names ...string) {
	for _, name := range names {
		if _, ok := f.columns[name]; !ok {
			continue
		}
		delete(f.columns, name)
		for i, col := range f.order {
			if col == name {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
	}
}

// Rename renames a column in place, keeping its position in the order.
// It is a no-op when from is absent or to already exists.
func (f *Frame) Rename(from, to string) {
	if from == to {
		return
	}
	vals, ok := f.columns[from]
	if !ok {
		return
	}
	if _, exists := f.columns[to]; exists {
		return
	}
	delete(f.columns, from)
	f.columns[to] = vals
	for i, col := range f.order {
		if col == from {
			f.order[i] = to
			break
		}
	}
}

// Reindex reshapes the frame to exactly the given column set and order.
// Columns absent from the frame are inserted filled with fill; columns not
// named are dropped. It returns the names inserted and dropped.
func (f *Frame) Reindex(schema []string, fill Value) (filled, dropped []string) {
	newCols := make(map[string][]Value, len(schema))
	inSchema := make(map[string]bool, len(schema))
	for _, name := range schema {
		inSchema[name] = true
		if vals, ok := f.columns[name]; ok {
			newCols[name] = vals
			continue
		}
		vals := make([]Value, f.rows)
		for i := range vals {
			vals[i] = fill
		}
		newCols[name] = vals
		filled = append(filled, name)
	}
	for _, name := range f.order {
		if !inSchema[name] {
			dropped = append(dropped, name)
		}
	}
	f.columns = newCols
	f.order = make([]string, len(schema))
	copy(f.order, schema)
	return filled, dropped
}

// Copy returns a deep copy of the frame.
func (f *Frame) Copy() *Frame {
	out := New()
	out.rows = f.rows
	out.order = make([]string, len(f.order))
	copy(out.order, f.order)
	for name, vals := range f.columns {
		cp := make([]Value, len(vals))
		copy(cp, vals)
		out.columns[name] = cp
	}
	return out
}

// SelectRows returns a new frame containing only the rows whose indices are
// listed, in the order given. Indices outside the frame are skipped.
func (f *Frame) SelectRows(indices []int) *Frame {
	out := New()
	out.order = make([]string, len(f.order))
	copy(out.order, f.order)
	kept := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < f.rows {
			kept = append(kept, idx)
		}
	}
	out.rows = len(kept)
	for name, vals := range f.columns {
		sel := make([]Value, len(kept))
		for i, idx := range kept {
			sel[i] = vals[idx]
		}
		out.columns[name] = sel
	}
	return out
}

// Numbers returns a column converted to float64 in row order.
// Null and non-numeric cells become zero.
func (f *Frame) Numbers(name string) ([]float64, bool) {
	vals, ok := f.columns[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v.Float()
	}
	return out, true
}

// Matrix returns the named columns as row-major feature vectors.
// Missing columns yield an error; cells convert as Numbers does.
func (f *Frame) Matrix(cols []string) ([][]float64, error) {
	vectors := make([][]float64, len(cols))
	for j, name := range cols {
		nums, ok := f.Numbers(name)
		if !ok {
			return nil, fmt.Errorf("column %s not present in frame", name)
		}
		vectors[j] = nums
	}
	out := make([][]float64, f.rows)
	for i := range out {
		row := make([]float64, len(cols))
		for j := range cols {
			row[j] = vectors[j][i]
		}
		out[i] = row
	}
	return out, nil
}

// RowKey returns a canonical signature of row i across all columns,
// used for deduplication.
func (f *Frame) RowKey(i int) string {
	key := ""
	for _, name := range f.order {
		key += f.columns[name][i].key() + "\x1f"
	}
	return key
}

// Records returns the frame as row-oriented records for JSON serialization.
func (f *Frame) Records() []map[string]Value {
	out := make([]map[string]Value, f.rows)
	for i := range out {
		rec := make(map[string]Value, len(f.order))
		for _, name := range f.order {
			rec[name] = f.columns[name][i]
		}
		out[i] = rec
	}
	return out
}
