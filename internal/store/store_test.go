// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package store

import (
	"context"
	"testing"

	"github.com/habistat/habistat/internal/config"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(&config.DatabaseConfig{Path: "", MaxMemory: "256MB", Threads: 1})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndRecent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	actual := 450000.0
	preds := []Prediction{
		{PredictedPrice: 460000, ActualPrice: &actual,
			Features: map[string]interface{}{"beds": 3.0, "baths": 2.0}},
		{PredictedPrice: 720000},
	}
	if err := s.Save(ctx, "api", preds); err != nil {
		t.Fatal(err)
	}
	if preds[0].ID == "" || preds[0].ID == preds[1].ID {
		t.Error("save must assign unique ids")
	}

	got, total, err := s.Recent(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("total=%d len=%d, want 2", total, len(got))
	}
	var withActual *Prediction
	for i := range got {
		if got[i].ActualPrice != nil {
			withActual = &got[i]
		}
	}
	if withActual == nil || *withActual.ActualPrice != 450000 {
		t.Error("actual_price not round-tripped")
	}
	if withActual.Features["beds"] != 3.0 {
		t.Errorf("features = %v", withActual.Features)
	}
}

func TestRecentPagination(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	batch := make([]Prediction, 5)
	for i := range batch {
		batch[i] = Prediction{PredictedPrice: float64(100000 * (i + 1))}
	}
	if err := s.Save(ctx, "batch", batch); err != nil {
		t.Fatal(err)
	}

	page, total, err := s.Recent(ctx, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 || len(page) != 2 {
		t.Errorf("total=%d len=%d, want 5 and 2", total, len(page))
	}
	rest, _, err := s.Recent(ctx, 10, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 {
		t.Errorf("offset page len=%d, want 1", len(rest))
	}
}

func TestSaveEmptyBatch(t *testing.T) {
	s := testStore(t)
	if err := s.Save(context.Background(), "api", nil); err != nil {
		t.Fatal(err)
	}
}

func TestMonthlyTrend(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "api", []Prediction{
		{PredictedPrice: 400000},
		{PredictedPrice: 600000},
	}); err != nil {
		t.Fatal(err)
	}

	stats, err := s.MonthlyTrend(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 {
		t.Fatalf("months = %d, want 1", len(stats))
	}
	if stats[0].Count != 2 || stats[0].AvgPrice != 500000 {
		t.Errorf("stat = %+v", stats[0])
	}
}

func TestPing(t *testing.T) {
	s := testStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}
