// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package feature

import (
	"testing"

	"github.com/habistat/habistat/internal/frame"
)

func TestAddDateFeatures(t *testing.T) {
	f := frame.New()
	f.SetColumn("date", []frame.Value{
		frame.Str("2014-10-13"),
		frame.Str("20141013T000000"),
		frame.Str("not a date"),
		frame.Null(),
	})
	if err := AddDateFeatures(f); err != nil {
		t.Fatal(err)
	}
	years, _ := f.Column("year")
	months, _ := f.Column("month")
	if years[0].Float() != 2014 || months[0].Float() != 10 {
		t.Errorf("row 0: year=%v month=%v", years[0].Float(), months[0].Float())
	}
	if years[1].Float() != 2014 || months[1].Float() != 10 {
		t.Errorf("row 1: year=%v month=%v", years[1].Float(), months[1].Float())
	}
	if !years[2].IsNull() || !months[2].IsNull() {
		t.Error("unparsable date should yield null features")
	}
	if !years[3].IsNull() {
		t.Error("null date should yield null features")
	}
}

func TestAddDateFeaturesNoDateColumn(t *testing.T) {
	f := frame.New()
	f.SetNumbers("beds", []float64{3})
	if err := AddDateFeatures(f); err != nil {
		t.Fatal(err)
	}
	if f.Has("year") || f.Has("month") {
		t.Error("no date column, no derived features")
	}
}

func TestAddDateFeaturesSkipsWhenYearPresent(t *testing.T) {
	f := frame.New()
	f.SetColumn("date", []frame.Value{frame.Str("2014-10-13")})
	f.SetNumbers("year", []float64{1999})
	if err := AddDateFeatures(f); err != nil {
		t.Fatal(err)
	}
	years, _ := f.Numbers("year")
	if years[0] != 1999 {
		t.Error("existing year column must not be recomputed")
	}
	if f.Has("month") {
		t.Error("month must not be added when year already exists")
	}
}
