// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package model

import "fmt"

// Tree is a fitted decision tree stored as parallel node arrays. A node with
// Left[i] == -1 is a leaf whose prediction is Value[i]; internal nodes route
// left when x[Feature[i]] <= Threshold[i].
type Tree struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int     `json:"left"`
	Right     []int     `json:"right"`
	Value     []float64 `json:"value"`
}

// Eval walks the tree for a single feature vector.
func (t *Tree) Eval(x []float64) (float64, error) {
	node := 0
	for steps := 0; steps <= len(t.Left); steps++ {
		if node < 0 || node >= len(t.Left) {
			return 0, fmt.Errorf("tree node index %d out of range", node)
		}
		if t.Left[node] == -1 {
			return t.Value[node], nil
		}
		feat := t.Feature[node]
		if feat < 0 || feat >= len(x) {
			return 0, fmt.Errorf("tree references feature %d, row has %d", feat, len(x))
		}
		if x[feat] <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return 0, fmt.Errorf("tree walk exceeded %d steps, cycle suspected", len(t.Left))
}

// validate checks the node arrays are consistent.
func (t *Tree) validate() error {
	n := len(t.Left)
	if len(t.Right) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("tree node arrays have mismatched lengths")
	}
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	return nil
}

// Ensemble is a collection of trees. For regression the trees' outputs are
// averaged; for classification each tree votes for a class label.
type Ensemble struct {
	Trees []Tree `json:"trees"`
}

// Validate checks every tree in the ensemble.
func (e *Ensemble) Validate() error {
	if len(e.Trees) == 0 {
		return fmt.Errorf("ensemble has no trees")
	}
	for i := range e.Trees {
		if err := e.Trees[i].validate(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// Predict returns the mean tree output per row.
func (e *Ensemble) Predict(X [][]float64) ([]float64, error) {
	if len(e.Trees) == 0 {
		return nil, fmt.Errorf("ensemble has no trees")
	}
	out := make([]float64, len(X))
	for i, row := range X {
		sum := 0.0
		for j := range e.Trees {
			y, err := e.Trees[j].Eval(row)
			if err != nil {
				return nil, fmt.Errorf("tree %d row %d: %w", j, i, err)
			}
			sum += y
		}
		out[i] = sum / float64(len(e.Trees))
	}
	return out, nil
}

// PredictClass returns the majority-vote class per row. Tree outputs are
// treated as discrete labels; ties break toward the lower label.
func (e *Ensemble) PredictClass(X [][]float64) ([]float64, error) {
	if len(e.Trees) == 0 {
		return nil, fmt.Errorf("ensemble has no trees")
	}
	out := make([]float64, len(X))
	for i, row := range X {
		votes := make(map[float64]int, 4)
		for j := range e.Trees {
			y, err := e.Trees[j].Eval(row)
			if err != nil {
				return nil, fmt.Errorf("tree %d row %d: %w", j, i, err)
			}
			votes[y]++
		}
		best, bestCount := 0.0, -1
		for label, count := range votes {
			if count > bestCount || (count == bestCount && label < best) {
				best, bestCount = label, count
			}
		}
		out[i] = best
	}
	return out, nil
}
