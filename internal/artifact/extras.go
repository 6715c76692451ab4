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
	"github.com/habistat/habistat/internal/model"
)

// Clusterer is a fitted market segmenter: a standard scaler plus k-means
// centroids over a fixed feature set.
type Clusterer struct {
	Features []string             `json:"features"`
	Scaler   model.StandardScaler `json:"scaler"`
	KMeans   model.KMeans         `json:"kmeans"`
}

// LoadClusterer reads a clusterer artifact.
func LoadClusterer(path string) (*Clusterer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clusterer artifact: %w", err)
	}
	var c Clusterer
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse clusterer artifact %s: %w", path, err)
	}
	if len(c.Features) == 0 || len(c.KMeans.Centroids) == 0 {
		return nil, fmt.Errorf("clusterer artifact %s missing features or centroids", path)
	}
	if len(c.Scaler.Mean) != len(c.Features) || len(c.Scaler.Std) != len(c.Features) {
		return nil, fmt.Errorf("clusterer artifact %s scaler does not match feature count", path)
	}
	return &c, nil
}

// Segment assigns each row of the frame to its nearest market segment.
func (c *Clusterer) Segment(f *frame.Frame) ([]int, error) {
	X, err := f.Matrix(c.Features)
	if err != nil {
		return nil, fmt.Errorf("feature extraction failed: %w", err)
	}
	scaled, err := c.Scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return c.KMeans.Assign(scaled)
}

// Listing is one reference property carried inside the recommender artifact.
type Listing struct {
	ID    string  `json:"id"`
	City  string  `json:"city"`
	Price float64 `json:"price"`
	Beds  float64 `json:"beds"`
	Baths float64 `json:"baths"`
	Sqft  float64 `json:"sqft"`
}

// Recommender finds comparable listings via nearest-neighbour search over a
// scaled reference matrix built at training time.
type Recommender struct {
	Features []string             `json:"features"`
	K        int                  `json:"k"`
	Scaler   model.StandardScaler `json:"scaler"`
	Matrix   [][]float64          `json:"matrix"`
	Listings []Listing            `json:"listings"`

	knn model.KNN
}

// LoadRecommender reads a recommender artifact.
func LoadRecommender(path string) (*Recommender, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recommender artifact: %w", err)
	}
	var r Recommender
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse recommender artifact %s: %w", path, err)
	}
	if len(r.Matrix) == 0 || len(r.Matrix) != len(r.Listings) {
		return nil, fmt.Errorf("recommender artifact %s matrix and listings disagree", path)
	}
	if r.K <= 0 {
		r.K = 5
	}
	r.knn = model.KNN{Samples: r.Matrix}
	return &r, nil
}

// Recommend returns up to k comparable listings for a query feature vector
// in raw (unscaled) feature units, nearest first.
func (r *Recommender) Recommend(x []float64, k int) ([]Listing, error) {
	if k <= 0 {
		k = r.K
	}
	scaled, err := r.Scaler.Transform([][]float64{x})
	if err != nil {
		return nil, err
	}
	idx, err := r.knn.Neighbors(scaled[0], k)
	if err != nil {
		return nil, err
	}
	out := make([]Listing, len(idx))
	for i, j := range idx {
		out[i] = r.Listings[j]
	}
	return out, nil
}

// LoadForecaster reads a Holt forecaster artifact.
func LoadForecaster(path string) (*model.Holt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read forecaster artifact: %w", err)
	}
	var h model.Holt
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to parse forecaster artifact %s: %w", path, err)
	}
	if h.Origin == "" {
		return nil, fmt.Errorf("forecaster artifact %s missing origin month", path)
	}
	return &h, nil
}
