// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

// Package main is the entry point for the Habistat serving process.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (env > config.yaml > defaults)
//  2. Logging: global zerolog logger
//  3. Prediction store: DuckDB history database
//  4. Artifacts: regression model (mandatory), encoders, schema, and the
//     optional classifier, clusterer, recommender, and forecaster
//  5. Inference pipeline: reconciliation pipeline wired to the artifacts
//  6. HTTP server: Chi router with the REST API and Prometheus metrics
//
// Shutdown is graceful on SIGINT and SIGTERM: in-flight requests get the
// configured server timeout to finish before the process exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/habistat/habistat/internal/api"
	"github.com/habistat/habistat/internal/artifact"
	"github.com/habistat/habistat/internal/config"
	"github.com/habistat/habistat/internal/feature"
	"github.com/habistat/habistat/internal/frame"
	"github.com/habistat/habistat/internal/logging"
	"github.com/habistat/habistat/internal/pipeline"
	"github.com/habistat/habistat/internal/preprocess"
	"github.com/habistat/habistat/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Habistat")

	st, err := store.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open prediction store")
	}
	defer st.Close()

	reg, err := artifact.Load(cfg.Artifacts, cfg.Pipeline.TargetColumn)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load model artifacts")
	}

	pipe := pipeline.New(reg, buildCleaner(cfg), featureEngineer{}, cfg.Pipeline.TargetColumn)
	handler := api.NewHandler(cfg, reg, pipe, st)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, handler),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
	logging.Info().Msg("Habistat stopped gracefully")
}

// buildCleaner wires the preprocessing stage, loading the zipcode reference
// table when configured. A missing table degrades to cleaning without the
// merge step.
func buildCleaner(cfg *config.Config) *preprocess.Cleaner {
	cleaner := &preprocess.Cleaner{TargetColumn: cfg.Pipeline.TargetColumn}
	if cfg.Pipeline.ReferenceTable == "" {
		return cleaner
	}
	ref, err := preprocess.LoadReference(cfg.Pipeline.ReferenceTable)
	if err != nil {
		logging.Warn().Err(err).Str("path", cfg.Pipeline.ReferenceTable).
			Msg("Reference table unavailable, merging disabled")
		return cleaner
	}
	cleaner.Reference = ref
	return cleaner
}

// featureEngineer adapts the feature package to the pipeline contract.
type featureEngineer struct{}

func (featureEngineer) AddDateFeatures(f *frame.Frame) error { return feature.AddDateFeatures(f) }
