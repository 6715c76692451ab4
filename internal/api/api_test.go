// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/habistat/habistat/internal/artifact"
	"github.com/habistat/habistat/internal/config"
	"github.com/habistat/habistat/internal/pipeline"
	"github.com/habistat/habistat/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8000, Timeout: 30 * time.Second},
		Pipeline: config.PipelineConfig{
			TargetColumn: "price",
			MaxBatchRows: 100,
		},
		API: config.APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			CORSOrigins:     []string{"*"},
		},
		Forecast: config.ForecastConfig{MaxMonths: 24, CacheTTL: time.Minute},
	}
}

func writeTestArtifacts(t *testing.T) config.ArtifactsConfig {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"regression.json": `{
			"kind": "linear",
			"feature_names": ["beds", "baths"],
			"intercept": 100000,
			"coefficients": [50000, 25000]
		}`,
		"classifier.json": `{
			"kind": "ensemble",
			"feature_names": ["beds", "baths"],
			"labels": ["starter", "family", "estate"],
			"trees": [{
				"feature": [0, -1, -1],
				"threshold": [3, 0, 0],
				"left": [1, -1, -1],
				"right": [2, -1, -1],
				"value": [0, 0, 2]
			}]
		}`,
		"freq.json": `{
			"kind": "frequency", "column": "zipcode", "output": "zipcode_freq",
			"mapping": {"98101": 120}
		}`,
		"target.json": `{
			"kind": "target", "column": "city_full", "output": "city_full_encoded",
			"mapping": {"seattle": 652000}
		}`,
		"schema.json": `{"columns": ["beds", "baths"], "target": "price"}`,
		"clusterer.json": `{
			"features": ["beds", "baths"],
			"scaler": {"mean": [0, 0], "std": [1, 1]},
			"kmeans": {"centroids": [[2, 1], [5, 4]]}
		}`,
		"recommender.json": `{
			"features": ["beds", "baths"],
			"k": 2,
			"scaler": {"mean": [0, 0], "std": [1, 1]},
			"matrix": [[3, 2], [5, 4], [3, 2.5]],
			"listings": [
				{"id": "a", "city": "seattle", "price": 450000, "beds": 3, "baths": 2, "sqft": 1500},
				{"id": "b", "city": "bellevue", "price": 900000, "beds": 5, "baths": 4, "sqft": 3000},
				{"id": "c", "city": "seattle", "price": 480000, "beds": 3, "baths": 2.5, "sqft": 1600}
			]
		}`,
		"forecaster.json": `{"level": 540000, "trend": 1200, "origin": "2015-05"}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return config.ArtifactsConfig{
		Dir:           dir,
		Model:         "regression.json",
		Classifier:    "classifier.json",
		Clusterer:     "clusterer.json",
		Recommender:   "recommender.json",
		Forecaster:    "forecaster.json",
		FreqEncoder:   "freq.json",
		TargetEncoder: "target.json",
		Schema:        "schema.json",
	}
}

func testServer(t *testing.T, withStore bool) http.Handler {
	t.Helper()
	cfg := testConfig()
	reg, err := artifact.Load(writeTestArtifacts(t), cfg.Pipeline.TargetColumn)
	if err != nil {
		t.Fatal(err)
	}
	pipe := pipeline.New(reg, nil, nil, cfg.Pipeline.TargetColumn)

	var st *store.Store
	if withStore {
		st, err = store.New(&config.DatabaseConfig{Threads: 1, MaxMemory: "256MB"})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { st.Close() })
	}
	return NewRouter(cfg, NewHandler(cfg, reg, pipe, st))
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, rec.Body.String())
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	h := testServer(t, false)
	rec, resp := doJSON(t, h, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status=%d success=%v", rec.Code, resp.Success)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestPredict(t *testing.T) {
	h := testServer(t, false)
	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/predict",
		`{"records": [{"beds": 3, "baths": 2, "zipcode_freq": 120}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	data, _ := json.Marshal(resp.Data)
	var pr PredictResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		t.Fatal(err)
	}
	want := 100000 + 3*50000.0 + 2*25000.0
	if len(pr.Predictions) != 1 || pr.Predictions[0] != want {
		t.Errorf("predictions = %v, want [%v]", pr.Predictions, want)
	}
	if pr.InputState != "processed" {
		t.Errorf("input_state = %s", pr.InputState)
	}
}

func TestPredictRejectsEmptyBatch(t *testing.T) {
	h := testServer(t, false)
	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/predict", `{"records": []}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestPredictRejectsOversizedBatch(t *testing.T) {
	h := testServer(t, false)
	var records []string
	for i := 0; i < 101; i++ {
		records = append(records, `{"beds": 3}`)
	}
	body := `{"records": [` + strings.Join(records, ",") + `]}`
	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/predict", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeBatchTooLarge {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestPredictInvalidJSON(t *testing.T) {
	h := testServer(t, false)
	rec, _ := doJSON(t, h, http.MethodPost, "/api/v1/predict", `{broken`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestClassify(t *testing.T) {
	h := testServer(t, false)
	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/classify",
		`{"records": [{"beds": 2, "baths": 1, "zipcode_freq": 1}, {"beds": 5, "baths": 4, "zipcode_freq": 1}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	data, _ := json.Marshal(resp.Data)
	var cr ClassifyResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		t.Fatal(err)
	}
	if len(cr.Tiers) != 2 || cr.Tiers[0] != 0 || cr.Tiers[1] != 2 {
		t.Errorf("tiers = %v", cr.Tiers)
	}
	if cr.Labels[0] != "starter" || cr.Labels[1] != "estate" {
		t.Errorf("labels = %v, want the artifact's label list", cr.Labels)
	}
}

// A classifier artifact without a label list falls back to the default tiers.
func TestClassifyDefaultLabels(t *testing.T) {
	cfg := testConfig()
	arts := writeTestArtifacts(t)
	bare := `{
		"kind": "ensemble",
		"feature_names": ["beds", "baths"],
		"trees": [{
			"feature": [0, -1, -1],
			"threshold": [3, 0, 0],
			"left": [1, -1, -1],
			"right": [2, -1, -1],
			"value": [0, 0, 2]
		}]
	}`
	if err := os.WriteFile(filepath.Join(arts.Dir, "classifier.json"), []byte(bare), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := artifact.Load(arts, cfg.Pipeline.TargetColumn)
	if err != nil {
		t.Fatal(err)
	}
	h := NewRouter(cfg, NewHandler(cfg, reg, pipeline.New(reg, nil, nil, cfg.Pipeline.TargetColumn), nil))

	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/classify",
		`{"records": [{"beds": 2, "baths": 1, "zipcode_freq": 1}, {"beds": 5, "baths": 4, "zipcode_freq": 1}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	data, _ := json.Marshal(resp.Data)
	var cr ClassifyResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		t.Fatal(err)
	}
	if cr.Labels[0] != "budget" || cr.Labels[1] != "premium" {
		t.Errorf("labels = %v, want the default tiers", cr.Labels)
	}
}

func TestSegment(t *testing.T) {
	h := testServer(t, false)
	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/segment",
		`{"records": [{"beds": 2, "baths": 1}, {"beds": 5, "baths": 4}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	data, _ := json.Marshal(resp.Data)
	var sr struct {
		Segments []int `json:"segments"`
	}
	if err := json.Unmarshal(data, &sr); err != nil {
		t.Fatal(err)
	}
	if len(sr.Segments) != 2 || sr.Segments[0] != 0 || sr.Segments[1] != 1 {
		t.Errorf("segments = %v", sr.Segments)
	}
}

func TestRecommend(t *testing.T) {
	h := testServer(t, false)
	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/recommend",
		`{"property": {"beds": 3, "baths": 2}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	data, _ := json.Marshal(resp.Data)
	var rr struct {
		Listings []artifact.Listing `json:"listings"`
	}
	if err := json.Unmarshal(data, &rr); err != nil {
		t.Fatal(err)
	}
	if len(rr.Listings) != 2 || rr.Listings[0].ID != "a" {
		t.Errorf("listings = %+v", rr.Listings)
	}
}

func TestForecast(t *testing.T) {
	h := testServer(t, false)
	rec, resp := doJSON(t, h, http.MethodGet, "/api/v1/forecast/3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	data, _ := json.Marshal(resp.Data)
	var steps []ForecastStep
	if err := json.Unmarshal(data, &steps); err != nil {
		t.Fatal(err)
	}
	if len(steps) != 3 || steps[0].Price != 541200 {
		t.Errorf("steps = %v", steps)
	}
	if steps[0].Date != "2015-06" {
		t.Errorf("first step date = %s, want 2015-06", steps[0].Date)
	}

	// Cached second call returns the same payload.
	_, resp2 := doJSON(t, h, http.MethodGet, "/api/v1/forecast/3", "")
	data2, _ := json.Marshal(resp2.Data)
	if string(data) != string(data2) {
		t.Error("cached forecast differs from first response")
	}
}

func TestForecastBounds(t *testing.T) {
	h := testServer(t, false)
	for _, path := range []string{"/api/v1/forecast/0", "/api/v1/forecast/999", "/api/v1/forecast/abc"} {
		rec, _ := doJSON(t, h, http.MethodGet, path, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	h := testServer(t, false)
	rec, _ := doJSON(t, h, http.MethodGet, "/api/v1/history", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHistoryAfterPredict(t *testing.T) {
	h := testServer(t, true)
	if rec, _ := doJSON(t, h, http.MethodPost, "/api/v1/predict",
		`{"records": [{"beds": 3, "baths": 2, "zipcode_freq": 1}]}`); rec.Code != http.StatusOK {
		t.Fatalf("predict status = %d", rec.Code)
	}

	rec, resp := doJSON(t, h, http.MethodGet, "/api/v1/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if resp.Meta == nil || resp.Meta.Pagination == nil || resp.Meta.Pagination.Total != 1 {
		t.Errorf("pagination = %+v", resp.Meta)
	}

	trendRec, _ := doJSON(t, h, http.MethodGet, "/api/v1/history/trend", "")
	if trendRec.Code != http.StatusOK {
		t.Errorf("trend status = %d", trendRec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := testServer(t, false)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_requests_total") &&
		!strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics exposition looks empty")
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	h := testServer(t, false)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
