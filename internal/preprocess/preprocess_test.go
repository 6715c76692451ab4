// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package preprocess

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/habistat/habistat/internal/frame"
)

func TestDropDuplicatesKeepsFirst(t *testing.T) {
	f := frame.New()
	f.SetNumbers("beds", []float64{3, 3, 4, 3})
	f.SetNumbers("price", []float64{450000, 450000, 600000, 450000})
	out := DropDuplicates(f)
	if out.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", out.NumRows())
	}
	beds, _ := out.Numbers("beds")
	if beds[0] != 3 || beds[1] != 4 {
		t.Errorf("kept rows out of order: %v", beds)
	}
}

func TestRemoveOutliersIQR(t *testing.T) {
	f := frame.New()
	prices := []float64{100, 110, 120, 130, 140, 150, 10000}
	f.SetNumbers("price", prices)
	c := &Cleaner{TargetColumn: "price"}
	out := c.RemoveOutliers(f)
	if out.NumRows() != 6 {
		t.Fatalf("rows = %d, want 6", out.NumRows())
	}
	nums, _ := out.Numbers("price")
	for _, p := range nums {
		if p == 10000 {
			t.Error("outlier survived")
		}
	}
}

func TestRemoveOutliersNullTargetSurvives(t *testing.T) {
	f := frame.New()
	f.SetColumn("price", []frame.Value{
		frame.Num(100), frame.Num(110), frame.Num(120), frame.Num(130),
		frame.Num(140), frame.Null(), frame.Num(10000),
	})
	c := &Cleaner{TargetColumn: "price"}
	out := c.RemoveOutliers(f)
	vals, _ := out.Column("price")
	foundNull := false
	for _, v := range vals {
		if v.IsNull() {
			foundNull = true
		}
	}
	if !foundNull {
		t.Error("null target row should survive outlier filtering")
	}
}

func TestRemoveOutliersSmallBatchUntouched(t *testing.T) {
	f := frame.New()
	f.SetNumbers("price", []float64{1, 1000000})
	c := &Cleaner{TargetColumn: "price"}
	if out := c.RemoveOutliers(f); out.NumRows() != 2 {
		t.Error("batches under 4 rows must pass through")
	}
}

func TestMergeReferenceColumns(t *testing.T) {
	ref := frame.New()
	ref.SetColumn("zipcode", []frame.Value{frame.Num(98101), frame.Num(98052)})
	ref.SetColumn("city_full", []frame.Value{frame.Str("seattle wa"), frame.Str("redmond wa")})
	ref.SetNumbers("lat", []float64{47.6, 47.67})

	f := frame.New()
	f.SetNumbers("zipcode", []float64{98052, 98101, 99999})
	f.SetNumbers("price", []float64{1, 2, 3})

	c := &Cleaner{Reference: ref}
	out, err := c.CleanAndMerge(f)
	if err != nil {
		t.Fatal(err)
	}
	cities, _ := out.Column("city_full")
	if cities[0].Text() != "redmond wa" || cities[1].Text() != "seattle wa" {
		t.Errorf("merged cities = %v, %v", cities[0].Text(), cities[1].Text())
	}
	if !cities[2].IsNull() {
		t.Error("unknown zipcode should merge null")
	}
	if !out.Has("lat") {
		t.Error("lat column not merged")
	}
}

func TestMergeDoesNotOverwrite(t *testing.T) {
	ref := frame.New()
	ref.SetColumn("zipcode", []frame.Value{frame.Num(98101)})
	ref.SetColumn("city_full", []frame.Value{frame.Str("from ref")})

	f := frame.New()
	f.SetNumbers("zipcode", []float64{98101})
	f.SetColumn("city_full", []frame.Value{frame.Str("original")})

	c := &Cleaner{Reference: ref}
	out, err := c.CleanAndMerge(f)
	if err != nil {
		t.Fatal(err)
	}
	cities, _ := out.Column("city_full")
	if cities[0].Text() != "original" {
		t.Error("merge overwrote an existing column")
	}
}

func TestCleanSequence(t *testing.T) {
	f := frame.New()
	f.SetNumbers("zipcode", []float64{98101, 98101, 98101, 98101, 98101, 98101})
	f.SetNumbers("price", []float64{100, 100, 110, 120, 130, 99999})
	c := &Cleaner{TargetColumn: "price"}
	out, err := c.Clean(f)
	if err != nil {
		t.Fatal(err)
	}
	// One duplicate and one outlier removed.
	if out.NumRows() != 4 {
		t.Errorf("rows = %d, want 4", out.NumRows())
	}
}

func TestLoadReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.csv")
	if err := os.WriteFile(path, []byte("zipcode,city\n98101,seattle\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadReference(path); err != nil {
		t.Fatal(err)
	}

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("city\nseattle\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadReference(bad); err == nil {
		t.Error("expected error for table without zipcode")
	}
}
