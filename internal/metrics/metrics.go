// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Inference pipeline stages and reconciliation outcomes
// - API endpoint latency and throughput
// - DuckDB query performance (prediction history store)

var (
	// Pipeline Metrics
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of inference pipeline invocations",
		},
		[]string{"input_state", "outcome"}, // input_state: "raw", "processed"; outcome: "ok", "fatal"
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of inference pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // "preprocess", "features", "encode", "align", "predict"
	)

	PipelineRowsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_rows_processed_total",
			Help: "Total number of rows fed through the pipeline",
		},
	)

	EncoderFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "encoder_fallbacks_total",
			Help: "Total number of per-row encoder fallbacks (unseen category substituted with zero)",
		},
		[]string{"encoder"}, // "frequency", "target"
	)

	AlignmentColumnsFilled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alignment_columns_filled_total",
			Help: "Total number of schema columns inserted with the neutral fill value",
		},
	)

	AlignmentColumnsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alignment_columns_dropped_total",
			Help: "Total number of extra columns dropped during schema alignment",
		},
	)

	PredictionsTruncated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "predictions_truncated_total",
			Help: "Total number of prediction vectors truncated to the expected row count",
		},
	)

	GroundTruthOmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ground_truth_omitted_total",
			Help: "Total number of result batches whose ground truth was dropped due to length mismatch",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "forecast", "recommend"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)
)

// RecordPipelineRun records a completed (or failed) pipeline invocation.
func RecordPipelineRun(inputState string, rows int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "fatal"
	}
	PipelineRuns.WithLabelValues(inputState, outcome).Inc()
	if err == nil {
		PipelineRowsProcessed.Add(float64(rows))
	}
}

// RecordStage records the duration of a single pipeline stage.
func RecordStage(stage string, duration time.Duration) {
	PipelineDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordEncoderFallbacks records per-row encoder fallbacks.
func RecordEncoderFallbacks(encoder string, count int) {
	if count > 0 {
		EncoderFallbacks.WithLabelValues(encoder).Add(float64(count))
	}
}

// RecordAlignment records column fill/drop counts from schema alignment.
func RecordAlignment(filled, dropped int) {
	if filled > 0 {
		AlignmentColumnsFilled.Add(float64(filled))
	}
	if dropped > 0 {
		AlignmentColumnsDropped.Add(float64(dropped))
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheHit records a cache hit for the given cache type.
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for the given cache type.
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}
