// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package model

import (
	"fmt"
	"math"
)

// StandardScaler centers and scales features to zero mean and unit variance
// using statistics captured at training time.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Transform returns a scaled copy of the rows; the input is not modified.
// A zero std leaves the column centered but unscaled.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("row %d has %d features, scaler expects %d",
				i, len(row), len(s.Mean))
		}
		scaled := make([]float64, len(row))
		for j, x := range row {
			scaled[j] = x - s.Mean[j]
			if s.Std[j] != 0 {
				scaled[j] /= s.Std[j]
			}
		}
		out[i] = scaled
	}
	return out, nil
}

// KMeans holds fitted cluster centroids. Assignment picks the nearest
// centroid by Euclidean distance.
type KMeans struct {
	Centroids [][]float64 `json:"centroids"`
}

// Assign returns the index of the nearest centroid for each row.
func (m *KMeans) Assign(X [][]float64) ([]int, error) {
	if len(m.Centroids) == 0 {
		return nil, fmt.Errorf("no centroids")
	}
	out := make([]int, len(X))
	for i, row := range X {
		best, bestDist := 0, math.Inf(1)
		for c, centroid := range m.Centroids {
			if len(centroid) != len(row) {
				return nil, fmt.Errorf("row %d has %d features, centroid %d has %d",
					i, len(row), c, len(centroid))
			}
			d := squaredDistance(row, centroid)
			if d < bestDist {
				best, bestDist = c, d
			}
		}
		out[i] = best
	}
	return out, nil
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
