// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

// Package artifact loads the trained artifacts the inference pipeline
// consumes: category encoders, predictor models, the training schema, and
// the registry that bundles them. Artifacts are JSON files produced by the
// training workflow and are immutable once loaded.
package artifact

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Encoder maps one categorical column to a numeric output column using a
// lookup table captured at training time.
type Encoder interface {
	// Column is the raw categorical column the encoder consumes.
	Column() string
	// Output is the encoded column the encoder produces.
	Output() string
	// Transform maps one category to its numeric encoding. The error return
	// distinguishes encoders that substitute a default for unseen categories
	// from those that surface the miss to the caller.
	Transform(category string) (float64, error)
}

// FrequencyEncoder replaces a category with its training-set occurrence
// count. Unseen categories map to Unseen (zero in practice) without error.
type FrequencyEncoder struct {
	Col     string             `json:"column"`
	Out     string             `json:"output"`
	Unseen  float64            `json:"unseen"`
	Mapping map[string]float64 `json:"mapping"`
}

func (e *FrequencyEncoder) Column() string { return e.Col }
func (e *FrequencyEncoder) Output() string { return e.Out }

// Transform never fails; unseen categories take the encoder's default.
func (e *FrequencyEncoder) Transform(category string) (float64, error) {
	if v, ok := e.Mapping[category]; ok {
		return v, nil
	}
	return e.Unseen, nil
}

// TargetEncoder replaces a category with the mean target value observed for
// it during training. Unseen categories are an error so the caller can apply
// its own visible fallback.
type TargetEncoder struct {
	Col     string             `json:"column"`
	Out     string             `json:"output"`
	Mapping map[string]float64 `json:"mapping"`
}

func (e *TargetEncoder) Column() string { return e.Col }
func (e *TargetEncoder) Output() string { return e.Out }

func (e *TargetEncoder) Transform(category string) (float64, error) {
	if v, ok := e.Mapping[category]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("category %q not seen during training", category)
}

// encoderFile is the on-disk artifact envelope for both encoder kinds.
type encoderFile struct {
	Kind    string             `json:"kind"`
	Column  string             `json:"column"`
	Output  string             `json:"output"`
	Unseen  float64            `json:"unseen"`
	Mapping map[string]float64 `json:"mapping"`
}

// LoadEncoder reads an encoder artifact and returns the matching encoder.
func LoadEncoder(path string) (Encoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encoder artifact: %w", err)
	}
	var file encoderFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse encoder artifact %s: %w", path, err)
	}
	if file.Column == "" || file.Output == "" {
		return nil, fmt.Errorf("encoder artifact %s missing column or output", path)
	}
	if file.Mapping == nil {
		return nil, fmt.Errorf("encoder artifact %s has no mapping", path)
	}
	switch file.Kind {
	case "frequency":
		return &FrequencyEncoder{
			Col:     file.Column,
			Out:     file.Output,
			Unseen:  file.Unseen,
			Mapping: file.Mapping,
		}, nil
	case "target":
		return &TargetEncoder{
			Col:     file.Column,
			Out:     file.Output,
			Mapping: file.Mapping,
		}, nil
	default:
		return nil, fmt.Errorf("unknown encoder kind %q in %s", file.Kind, path)
	}
}
