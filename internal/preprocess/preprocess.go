// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

// Package preprocess implements the raw-input cleaning stage applied before
// feature engineering: reference-table merge, duplicate removal, and price
// outlier filtering. The stage only runs on batches detected as raw.
package preprocess

import (
	"fmt"
	"sort"

	"github.com/habistat/habistat/internal/frame"
	"github.com/habistat/habistat/internal/logging"
)

// Cleaner cleans a raw property batch. A zero Cleaner applies deduplication
// and outlier removal only; set Reference to also merge location columns.
type Cleaner struct {
	// Reference is an optional zipcode reference table (zipcode, city,
	// city_full, lat, lng). When set, its columns are merged onto rows by
	// zipcode without overwriting columns the batch already has.
	Reference *frame.Frame
	// TargetColumn is the price column outlier filtering applies to.
	// Rows without the column pass through untouched.
	TargetColumn string
	// IQRFactor widens the outlier fences; 0 means the standard 1.5.
	IQRFactor float64
}

// LoadReference reads the zipcode reference table from a CSV file.
func LoadReference(path string) (*frame.Frame, error) {
	f, err := frame.ReadCSVFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference table: %w", err)
	}
	if !f.Has("zipcode") {
		return nil, fmt.Errorf("reference table %s has no zipcode column", path)
	}
	return f, nil
}

// Clean runs the full cleaning sequence: merge, deduplicate, remove
// outliers. Row order of surviving rows is preserved.
func (c *Cleaner) Clean(f *frame.Frame) (*frame.Frame, error) {
	out, err := c.CleanAndMerge(f)
	if err != nil {
		return nil, err
	}
	out = c.DropDuplicates(out)
	out = c.RemoveOutliers(out)
	return out, nil
}

// CleanAndMerge joins reference columns onto the batch by zipcode. Rows
// whose zipcode is absent from the reference get null cells. Without a
// reference table or a zipcode column the batch passes through unchanged.
func (c *Cleaner) CleanAndMerge(f *frame.Frame) (*frame.Frame, error) {
	if c.Reference == nil || !f.Has("zipcode") {
		return f, nil
	}
	refZips, _ := c.Reference.Column("zipcode")
	index := make(map[string]int, len(refZips))
	for i, z := range refZips {
		key := z.Text()
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	zips, _ := f.Column("zipcode")
	merged := 0
	for _, name := range c.Reference.Columns() {
		if name == "zipcode" || f.Has(name) {
			continue
		}
		refVals, _ := c.Reference.Column(name)
		vals := make([]frame.Value, f.NumRows())
		for i, z := range zips {
			if j, ok := index[z.Text()]; ok {
				vals[i] = refVals[j]
			} else {
				vals[i] = frame.Null()
			}
		}
		if err := f.SetColumn(name, vals); err != nil {
			return nil, fmt.Errorf("failed to merge reference column %s: %w", name, err)
		}
		merged++
	}
	if merged > 0 {
		logging.Debug().Int("columns", merged).Msg("Merged reference columns")
	}
	return f, nil
}

// DropDuplicates removes exact duplicate rows, keeping the first
// occurrence. Method form of the package-level function so the cleaner
// satisfies the pipeline's preprocessing contract.
func (c *Cleaner) DropDuplicates(f *frame.Frame) *frame.Frame {
	return DropDuplicates(f)
}

// DropDuplicates removes exact duplicate rows, keeping the first occurrence.
func DropDuplicates(f *frame.Frame) *frame.Frame {
	seen := make(map[string]bool, f.NumRows())
	keep := make([]int, 0, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		key := f.RowKey(i)
		if seen[key] {
			continue
		}
		seen[key] = true
		keep = append(keep, i)
	}
	if len(keep) == f.NumRows() {
		return f
	}
	logging.Debug().Int("dropped", f.NumRows()-len(keep)).Msg("Dropped duplicate rows")
	return f.SelectRows(keep)
}

// RemoveOutliers drops rows whose target value falls outside the IQR fences
// (Q1 - factor*IQR, Q3 + factor*IQR). Rows with a null target survive.
func (c *Cleaner) RemoveOutliers(f *frame.Frame) *frame.Frame {
	if c.TargetColumn == "" || !f.Has(c.TargetColumn) || f.NumRows() < 4 {
		return f
	}
	vals, _ := f.Column(c.TargetColumn)
	var nums []float64
	for _, v := range vals {
		if !v.IsNull() {
			nums = append(nums, v.Float())
		}
	}
	if len(nums) < 4 {
		return f
	}
	sort.Float64s(nums)
	q1 := quantile(nums, 0.25)
	q3 := quantile(nums, 0.75)
	factor := c.IQRFactor
	if factor == 0 {
		factor = 1.5
	}
	low := q1 - factor*(q3-q1)
	high := q3 + factor*(q3-q1)

	keep := make([]int, 0, f.NumRows())
	for i, v := range vals {
		if v.IsNull() || (v.Float() >= low && v.Float() <= high) {
			keep = append(keep, i)
		}
	}
	if len(keep) == f.NumRows() {
		return f
	}
	logging.Debug().
		Int("dropped", f.NumRows()-len(keep)).
		Float64("low", low).
		Float64("high", high).
		Msg("Removed price outliers")
	return f.SelectRows(keep)
}

// quantile returns the linearly interpolated q-quantile of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
