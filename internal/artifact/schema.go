// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package artifact

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/habistat/habistat/internal/frame"
)

// Schema is the training feature schema: the exact column set and order the
// model was fitted on, plus the columns excluded from features at training
// time (the target itself and known leakage columns).
type Schema struct {
	Columns  []string `json:"columns"`
	Excluded []string `json:"excluded"`
	Target   string   `json:"target"`
}

// DefaultExcluded lists the columns dropped from features when no schema
// manifest declares an exclusion list.
var DefaultExcluded = []string{"price", "date", "city_full", "id"}

// LoadSchema reads a schema manifest artifact.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema manifest: %w", err)
	}
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema manifest %s: %w", path, err)
	}
	if len(s.Columns) == 0 {
		return nil, fmt.Errorf("schema manifest %s declares no columns", path)
	}
	if s.Excluded == nil {
		s.Excluded = append([]string(nil), DefaultExcluded...)
	}
	return &s, nil
}

// SchemaFromTrainingTable derives a schema from the header row of the
// training feature table, excluding the target and default leakage columns.
// It is the fallback when no schema manifest artifact exists.
func SchemaFromTrainingTable(path, target string) (*Schema, error) {
	f, err := frame.ReadCSVFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read training feature table: %w", err)
	}
	excluded := append([]string(nil), DefaultExcluded...)
	if target != "" && !contains(excluded, target) {
		excluded = append(excluded, target)
	}
	var cols []string
	for _, name := range f.Columns() {
		if !contains(excluded, name) {
			cols = append(cols, name)
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("training feature table %s yields no feature columns", path)
	}
	return &Schema{Columns: cols, Excluded: excluded, Target: target}, nil
}

// IsExcluded reports whether a column is on the schema's exclusion list.
func (s *Schema) IsExcluded(name string) bool {
	return contains(s.Excluded, name)
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}
