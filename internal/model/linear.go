// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

// Package model implements the predictor kinds consumed through trained
// artifacts: linear regression, decision-tree ensembles (regression and
// classification), k-means assignment with standard scaling, k-nearest
// neighbour search, and Holt linear-trend forecasting. All predictors are
// read-only after construction and safe for concurrent use.
package model

import "fmt"

// Linear is a fitted linear regression model.
type Linear struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Predict returns one prediction per feature row.
func (m *Linear) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.Coefficients) {
			return nil, fmt.Errorf("row %d has %d features, model expects %d",
				i, len(row), len(m.Coefficients))
		}
		y := m.Intercept
		for j, x := range row {
			y += m.Coefficients[j] * x
		}
		out[i] = y
	}
	return out, nil
}
