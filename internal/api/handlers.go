// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/habistat/habistat/internal/artifact"
	"github.com/habistat/habistat/internal/cache"
	"github.com/habistat/habistat/internal/config"
	"github.com/habistat/habistat/internal/frame"
	"github.com/habistat/habistat/internal/logging"
	"github.com/habistat/habistat/internal/metrics"
	"github.com/habistat/habistat/internal/pipeline"
	"github.com/habistat/habistat/internal/store"
)

// defaultTierLabels names the price tiers when the classifier artifact
// carries no label list of its own.
var defaultTierLabels = []string{"budget", "standard", "premium"}

// Handler holds the shared, read-only dependencies of all endpoints.
type Handler struct {
	cfg           *config.Config
	registry      *artifact.Registry
	pipe          *pipeline.Pipeline
	store         *store.Store
	forecastCache *cache.LRU
}

// NewHandler builds the endpoint handler set.
func NewHandler(cfg *config.Config, reg *artifact.Registry, pipe *pipeline.Pipeline, st *store.Store) *Handler {
	return &Handler{
		cfg:           cfg,
		registry:      reg,
		pipe:          pipe,
		store:         st,
		forecastCache: cache.NewLRU(128, cfg.Forecast.CacheTTL),
	}
}

// Health reports service and dependency status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	status := map[string]interface{}{
		"status":      "ok",
		"model":       h.registry.Regression.Kind(),
		"classifier":  h.registry.Classifier != nil,
		"clusterer":   h.registry.Clusterer != nil,
		"recommender": h.registry.Recommender != nil,
		"forecaster":  h.registry.Forecaster != nil,
	}
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
		} else {
			status["database"] = "ok"
		}
	}
	rw.Success(status)
}

// PredictResponse is the payload of a successful prediction call.
type PredictResponse struct {
	Predictions []float64                `json:"predictions"`
	Actual      []float64                `json:"actual,omitempty"`
	Records     []map[string]frame.Value `json:"records"`
	Count       int                      `json:"count"`
	InputState  string                   `json:"input_state"`
	Fallbacks   int                      `json:"encoder_fallbacks"`
}

// Predict runs the inference pipeline over a record batch.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	f, ok := h.decodeBatch(rw, r)
	if !ok {
		return
	}

	res, err := h.pipe.Run(f)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Pipeline invocation failed")
		rw.Error(http.StatusInternalServerError, ErrCodePredictionFailed, err.Error())
		return
	}

	preds, _ := res.Frame.Numbers("predicted_price")
	resp := &PredictResponse{
		Predictions: preds,
		Records:     res.Frame.Records(),
		Count:       res.Frame.NumRows(),
		InputState:  res.State.String(),
		Fallbacks:   len(res.FreqFallbacks) + len(res.TargetFallbacks),
	}
	if actual, ok := res.Frame.Numbers("actual_price"); ok {
		resp.Actual = actual
	}
	h.persistPredictions(r.Context(), res.Frame)
	rw.Success(resp)
}

// persistPredictions records served predictions in the history store.
// Store failures degrade history, never the prediction response.
func (h *Handler) persistPredictions(ctx context.Context, f *frame.Frame) {
	if h.store == nil {
		return
	}
	preds, ok := f.Numbers("predicted_price")
	if !ok {
		return
	}
	actual, hasActual := f.Numbers("actual_price")

	rows := make([]store.Prediction, len(preds))
	records := f.Records()
	for i := range rows {
		features := make(map[string]interface{}, len(records[i]))
		for name, v := range records[i] {
			if name == "predicted_price" || name == "actual_price" {
				continue
			}
			features[name] = v.Float()
		}
		rows[i] = store.Prediction{PredictedPrice: preds[i], Features: features}
		if hasActual {
			a := actual[i]
			rows[i].ActualPrice = &a
		}
	}
	if err := h.store.Save(ctx, "api", rows); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to persist predictions")
	}
}

// ClassifyResponse is the payload of a tier classification call.
type ClassifyResponse struct {
	Tiers      []int    `json:"tiers"`
	Labels     []string `json:"labels"`
	Count      int      `json:"count"`
	InputState string   `json:"input_state"`
}

// Classify runs the tier classifier over a record batch. The batch goes
// through the same reconciliation as prediction with the classifier as the
// predictor.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.registry.Classifier == nil {
		rw.Unavailable("tier classifier not loaded")
		return
	}
	f, ok := h.decodeBatch(rw, r)
	if !ok {
		return
	}

	classifierPipe := *h.pipe
	classifierPipe.Model = &classPredictor{model: h.registry.Classifier}
	res, err := classifierPipe.Run(f)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Classification failed")
		rw.Error(http.StatusInternalServerError, ErrCodePredictionFailed, err.Error())
		return
	}

	labels := h.registry.Classifier.Labels()
	if len(labels) == 0 {
		labels = defaultTierLabels
	}
	classes, _ := res.Frame.Numbers("predicted_price")
	resp := &ClassifyResponse{
		Tiers:      make([]int, len(classes)),
		Labels:     make([]string, len(classes)),
		Count:      len(classes),
		InputState: res.State.String(),
	}
	for i, c := range classes {
		tier := int(c)
		resp.Tiers[i] = tier
		if tier >= 0 && tier < len(labels) {
			resp.Labels[i] = labels[tier]
		} else {
			resp.Labels[i] = "unknown"
		}
	}
	rw.Success(resp)
}

// classPredictor adapts a classification model to the pipeline's predictor
// contract: majority-vote classes instead of averaged regression output.
type classPredictor struct {
	model *artifact.Model
}

func (c *classPredictor) FeatureNames() []string { return c.model.FeatureNames() }

func (c *classPredictor) Predict(f *frame.Frame) ([]float64, error) {
	return c.model.PredictClass(f)
}

// Segment assigns each record to a market segment.
func (h *Handler) Segment(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.registry.Clusterer == nil {
		rw.Unavailable("market clusterer not loaded")
		return
	}
	var req SegmentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		rw.ValidationFailed(err.Error(), nil)
		return
	}
	if len(req.Records) > h.cfg.Pipeline.MaxBatchRows {
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBatchTooLarge,
			fmt.Sprintf("batch exceeds %d rows", h.cfg.Pipeline.MaxBatchRows))
		return
	}

	segments, err := h.registry.Clusterer.Segment(frame.FromRecords(req.Records))
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	rw.Success(map[string]interface{}{
		"segments": segments,
		"count":    len(segments),
	})
}

// Recommend returns comparable listings for one query property.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rec := h.registry.Recommender
	if rec == nil {
		rw.Unavailable("listing recommender not loaded")
		return
	}
	var req RecommendRequest
	if err := decodeAndValidate(r, &req); err != nil {
		rw.ValidationFailed(err.Error(), nil)
		return
	}

	// Build the query vector in the recommender's feature order; absent
	// features take zero, matching the pipeline's neutral fill.
	x := make([]float64, len(rec.Features))
	for i, name := range rec.Features {
		if v, ok := req.Property[name]; ok {
			x[i] = v.Float()
		}
	}
	listings, err := rec.Recommend(x, req.K)
	if err != nil {
		rw.InternalError(err.Error())
		return
	}
	rw.Success(map[string]interface{}{
		"listings": listings,
		"count":    len(listings),
	})
}

// ForecastStep is one projected month of the market price trend.
type ForecastStep struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// Forecast projects the market price trend the requested number of months
// ahead, one {date, price} step per month. Responses are cached per horizon.
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.registry.Forecaster == nil {
		rw.Unavailable("market forecaster not loaded")
		return
	}
	months, err := strconv.Atoi(chi.URLParam(r, "months"))
	if err != nil || months < 1 || months > h.cfg.Forecast.MaxMonths {
		rw.BadRequest(fmt.Sprintf("months must be an integer in 1..%d", h.cfg.Forecast.MaxMonths))
		return
	}

	key := "forecast:" + strconv.Itoa(months)
	if cached, ok := h.forecastCache.Get(key); ok {
		metrics.RecordCacheHit("forecast")
		var steps []ForecastStep
		if err := json.Unmarshal(cached, &steps); err == nil {
			rw.Success(steps)
			return
		}
	}
	metrics.RecordCacheMiss("forecast")

	values, err := h.registry.Forecaster.Forecast(months)
	if err != nil {
		rw.InternalError(err.Error())
		return
	}
	dates, err := h.registry.Forecaster.Months(months)
	if err != nil {
		rw.InternalError(err.Error())
		return
	}
	steps := make([]ForecastStep, len(values))
	for i := range values {
		steps[i] = ForecastStep{Date: dates[i], Price: values[i]}
	}
	if data, err := json.Marshal(steps); err == nil {
		h.forecastCache.Add(key, data)
	}
	rw.Success(steps)
}

// History returns persisted predictions, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.store == nil {
		rw.Unavailable("prediction history store not configured")
		return
	}
	limit := queryInt(r, "limit", h.cfg.API.DefaultPageSize)
	if limit < 1 || limit > h.cfg.API.MaxPageSize {
		limit = h.cfg.API.DefaultPageSize
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	preds, total, err := h.store.Recent(r.Context(), limit, offset)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("History query failed")
		rw.InternalError("failed to query prediction history")
		return
	}
	rw.SuccessWithPagination(preds, &PaginationMeta{
		Total:   total,
		Count:   len(preds),
		Offset:  offset,
		Limit:   limit,
		HasMore: offset+len(preds) < total,
	})
}

// HistoryTrend returns monthly aggregates of the prediction history.
func (h *Handler) HistoryTrend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.store == nil {
		rw.Unavailable("prediction history store not configured")
		return
	}
	stats, err := h.store.MonthlyTrend(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Trend query failed")
		rw.InternalError("failed to aggregate prediction history")
		return
	}
	rw.Success(map[string]interface{}{
		"trend": stats,
		"count": len(stats),
	})
}

// decodeBatch parses and bounds-checks a record batch request body.
func (h *Handler) decodeBatch(rw *ResponseWriter, r *http.Request) (*frame.Frame, bool) {
	var req PredictRequest
	if err := decodeAndValidate(r, &req); err != nil {
		rw.ValidationFailed(err.Error(), nil)
		return nil, false
	}
	if len(req.Records) > h.cfg.Pipeline.MaxBatchRows {
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBatchTooLarge,
			fmt.Sprintf("batch exceeds %d rows", h.cfg.Pipeline.MaxBatchRows))
		return nil, false
	}
	return req.Frame(), true
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
