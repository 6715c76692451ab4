// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package model

import (
	"math"
	"reflect"
	"testing"
)

func TestLinearPredict(t *testing.T) {
	m := &Linear{Intercept: 10, Coefficients: []float64{2, -1}}
	got, err := m.Predict([][]float64{{3, 4}, {0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{12, 10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Predict = %v, want %v", got, want)
	}

	if _, err := m.Predict([][]float64{{1}}); err == nil {
		t.Error("expected error for feature count mismatch")
	}
}

// stump routes on feature 0 at the given threshold.
func stump(threshold, left, right float64) Tree {
	return Tree{
		Feature:   []int{0, -1, -1},
		Threshold: []float64{threshold, 0, 0},
		Left:      []int{1, -1, -1},
		Right:     []int{2, -1, -1},
		Value:     []float64{0, left, right},
	}
}

func TestTreeEval(t *testing.T) {
	tr := stump(5, 100, 200)
	tests := []struct {
		x    float64
		want float64
	}{
		{3, 100},
		{5, 100}, // boundary goes left
		{7, 200},
	}
	for _, tt := range tests {
		got, err := tr.Eval([]float64{tt.x})
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Eval(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestTreeEvalCycleDetected(t *testing.T) {
	tr := Tree{
		Feature:   []int{0, 0},
		Threshold: []float64{0, 0},
		Left:      []int{1, 0}, // 0 -> 1 -> 0 -> ...
		Right:     []int{1, 0},
		Value:     []float64{0, 0},
	}
	if _, err := tr.Eval([]float64{-1}); err == nil {
		t.Error("expected cycle error")
	}
}

func TestEnsemblePredictAverages(t *testing.T) {
	e := &Ensemble{Trees: []Tree{stump(5, 100, 200), stump(5, 300, 400)}}
	got, err := e.Predict([][]float64{{1}, {9}})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{200, 300}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Predict = %v, want %v", got, want)
	}
}

func TestEnsemblePredictClassMajority(t *testing.T) {
	e := &Ensemble{Trees: []Tree{
		stump(5, 0, 1),
		stump(5, 0, 1),
		stump(5, 1, 0),
	}}
	got, err := e.PredictClass([][]float64{{1}, {9}})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PredictClass = %v, want %v", got, want)
	}
}

func TestEnsembleValidate(t *testing.T) {
	bad := &Ensemble{Trees: []Tree{{Left: []int{-1}, Right: []int{-1}, Value: []float64{1}}}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for mismatched node arrays")
	}
	empty := &Ensemble{}
	if err := empty.Validate(); err == nil {
		t.Error("expected error for empty ensemble")
	}
	good := &Ensemble{Trees: []Tree{stump(5, 1, 2)}}
	if err := good.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestScalerTransform(t *testing.T) {
	s := &StandardScaler{Mean: []float64{10, 5}, Std: []float64{2, 0}}
	got, err := s.Transform([][]float64{{14, 8}})
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{{2, 3}} // zero std only centers
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Transform = %v, want %v", got, want)
	}
	if _, err := s.Transform([][]float64{{1}}); err == nil {
		t.Error("expected error for feature count mismatch")
	}
}

func TestKMeansAssign(t *testing.T) {
	m := &KMeans{Centroids: [][]float64{{0, 0}, {10, 10}}}
	got, err := m.Assign([][]float64{{1, 1}, {9, 8}, {5, 5.1}})
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 1, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assign = %v, want %v", got, want)
	}
}

func TestKNNNeighbors(t *testing.T) {
	m := &KNN{Samples: [][]float64{{0}, {10}, {2}, {6}}}
	got, err := m.Neighbors([]float64{1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 2} // distances 1 and 1, tie breaks to lower index
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Neighbors = %v, want %v", got, want)
	}

	all, err := m.Neighbors([]float64{1}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(m.Samples) {
		t.Errorf("oversized k returned %d neighbors, want %d", len(all), len(m.Samples))
	}

	if _, err := m.Neighbors([]float64{1}, 0); err == nil {
		t.Error("expected error for non-positive k")
	}
}

func TestHoltForecast(t *testing.T) {
	m := &Holt{Level: 100, Trend: 2, Origin: "2015-05"}
	got, err := m.Forecast(3)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{102, 104, 106}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Forecast = %v, want %v", got, want)
	}

	months, err := m.Months(3)
	if err != nil {
		t.Fatal(err)
	}
	wantMonths := []string{"2015-06", "2015-07", "2015-08"}
	if !reflect.DeepEqual(months, wantMonths) {
		t.Errorf("Months = %v, want %v", months, wantMonths)
	}
}

func TestHoltForecastSeasonal(t *testing.T) {
	m := &Holt{Level: 100, Trend: 0, Seasonal: []float64{5, -5}, Origin: "2015-12"}
	got, err := m.Forecast(4)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{105, 95, 105, 95}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Forecast = %v, want %v", got, want)
	}

	if _, err := m.Forecast(0); err == nil {
		t.Error("expected error for non-positive horizon")
	}
}

func TestSquaredDistance(t *testing.T) {
	if d := squaredDistance([]float64{0, 3}, []float64{4, 0}); math.Abs(d-25) > 1e-12 {
		t.Errorf("squaredDistance = %v, want 25", d)
	}
}
