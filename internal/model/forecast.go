// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package model

import (
	"fmt"
	"time"
)

// Holt is a fitted Holt linear-trend forecaster with an optional additive
// seasonal component. Level and Trend are the smoothed state at Origin;
// Seasonal, when present, repeats with period len(Seasonal) months.
type Holt struct {
	Level    float64   `json:"level"`
	Trend    float64   `json:"trend"`
	Seasonal []float64 `json:"seasonal,omitempty"`
	Origin   string    `json:"origin"` // YYYY-MM of the last observed month
}

// Forecast projects the series the given number of months ahead. Each point
// is level + h*trend, plus the seasonal term for that calendar offset.
func (m *Holt) Forecast(months int) ([]float64, error) {
	if months <= 0 {
		return nil, fmt.Errorf("months must be positive, got %d", months)
	}
	out := make([]float64, months)
	for h := 1; h <= months; h++ {
		y := m.Level + float64(h)*m.Trend
		if len(m.Seasonal) > 0 {
			y += m.Seasonal[(h-1)%len(m.Seasonal)]
		}
		out[h-1] = y
	}
	return out, nil
}

// Months returns the YYYY-MM labels for a forecast horizon, starting the
// month after Origin. An unparsable origin yields an error.
func (m *Holt) Months(months int) ([]string, error) {
	t, err := time.Parse("2006-01", m.Origin)
	if err != nil {
		return nil, fmt.Errorf("invalid forecast origin %q: %w", m.Origin, err)
	}
	out := make([]string, months)
	for h := 1; h <= months; h++ {
		out[h-1] = t.AddDate(0, h, 0).Format("2006-01")
	}
	return out, nil
}
