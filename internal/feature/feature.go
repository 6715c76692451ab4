// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

// Package feature implements the date feature engineering stage: deriving
// year and month columns from a raw date column when the batch carries one.
package feature

import (
	"time"

	"github.com/habistat/habistat/internal/frame"
)

// dateLayouts are the formats accepted for the raw date column, tried in
// order. The second form is the compact timestamp some listing exports use.
var dateLayouts = []string{
	"2006-01-02",
	"20060102T000000",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// AddDateFeatures derives year and month columns from the date column.
// It is a no-op when the batch has no date column or already carries a year
// column (the marker that engineering already ran). Unparsable cells yield
// null year and month.
func AddDateFeatures(f *frame.Frame) error {
	if !f.Has("date") || f.Has("year") {
		return nil
	}
	dates, _ := f.Column("date")
	years := make([]frame.Value, len(dates))
	months := make([]frame.Value, len(dates))
	for i, v := range dates {
		t, ok := parseDate(v)
		if !ok {
			years[i] = frame.Null()
			months[i] = frame.Null()
			continue
		}
		years[i] = frame.Num(float64(t.Year()))
		months[i] = frame.Num(float64(t.Month()))
	}
	if err := f.SetColumn("year", years); err != nil {
		return err
	}
	return f.SetColumn("month", months)
}

func parseDate(v frame.Value) (time.Time, bool) {
	if v.IsNull() {
		return time.Time{}, false
	}
	s := v.Text()
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
