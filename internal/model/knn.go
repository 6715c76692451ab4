// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package model

import (
	"fmt"
	"math"
)

// KNN performs nearest-neighbour lookup over a fixed reference matrix.
// Rows are the training samples in their original order.
type KNN struct {
	Samples [][]float64
}

// neighbor pairs a sample index with its distance to the query.
type neighbor struct {
	index int
	dist  float64
}

// Neighbors returns the indices of the k samples closest to x by Euclidean
// distance, nearest first. Ties break toward the lower index. A k larger
// than the sample count returns all samples.
func (m *KNN) Neighbors(x []float64, k int) ([]int, error) {
	if len(m.Samples) == 0 {
		return nil, fmt.Errorf("no samples")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if k > len(m.Samples) {
		k = len(m.Samples)
	}

	// Keep a small sorted slice of the best k seen so far instead of
	// sorting all distances.
	best := make([]neighbor, 0, k)
	for i, sample := range m.Samples {
		if len(sample) != len(x) {
			return nil, fmt.Errorf("query has %d features, sample %d has %d",
				len(x), i, len(sample))
		}
		d := math.Sqrt(squaredDistance(x, sample))
		if len(best) == k && d >= best[k-1].dist {
			continue
		}
		pos := len(best)
		for pos > 0 && best[pos-1].dist > d {
			pos--
		}
		if len(best) < k {
			best = append(best, neighbor{})
		}
		copy(best[pos+1:], best[pos:])
		best[pos] = neighbor{index: i, dist: d}
	}

	out := make([]int, len(best))
	for i, n := range best {
		out[i] = n.index
	}
	return out, nil
}
