// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/habistat/habistat/internal/config"
)

// NewRouter wires the full HTTP surface.
func NewRouter(cfg *config.Config, h *Handler) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.API.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(PrometheusMetrics)
		if cfg.API.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(cfg.API.RateLimitReqs, cfg.API.RateLimitWindow))
		}

		r.Get("/health", h.Health)
		r.Post("/predict", h.Predict)
		r.Post("/classify", h.Classify)
		r.Post("/segment", h.Segment)
		r.Post("/recommend", h.Recommend)
		r.Get("/forecast/{months}", h.Forecast)
		r.Get("/history", h.History)
		r.Get("/history/trend", h.HistoryTrend)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
