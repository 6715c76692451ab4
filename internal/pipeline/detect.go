// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

// Package pipeline implements the inference reconciliation pipeline: it
// classifies an incoming batch as raw or processed, conditionally cleans
// and feature-engineers it, applies the trained encoders, filters leakage
// columns, aligns the column set to the training schema, invokes the
// predictor, and composes the result batch.
package pipeline

import "github.com/habistat/habistat/internal/frame"

// State classifies how far an input batch has been prepared.
type State int

const (
	// StateRaw means the batch still needs cleaning, feature engineering,
	// and encoding.
	StateRaw State = iota
	// StateProcessed means the batch already carries derived features and
	// skips the preprocessing and feature stages.
	StateProcessed
)

// String returns the metric label for the state.
func (s State) String() string {
	if s == StateProcessed {
		return "processed"
	}
	return "raw"
}

// processedMarkers are derived-feature columns whose presence proves the
// batch already went through feature preparation.
var processedMarkers = []string{"zipcode_freq", "city_full_encoded"}

// Detect classifies a batch by inspecting its column set. A batch is
// processed when any derived-feature marker is present, or when both
// latitude and longitude are present (geocoding already resolved). An empty
// batch is processed: there is nothing to prepare.
func Detect(f *frame.Frame) State {
	if f.NumRows() == 0 || f.NumColumns() == 0 {
		return StateProcessed
	}
	for _, marker := range processedMarkers {
		if f.Has(marker) {
			return StateProcessed
		}
	}
	if f.Has("lat") && f.Has("lng") {
		return StateProcessed
	}
	return StateRaw
}
