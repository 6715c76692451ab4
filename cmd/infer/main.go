// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

// Package main is the batch inference CLI: it reads a CSV of property
// records, runs the inference reconciliation pipeline, and writes the
// result batch (predictions plus surviving ground truth) to a CSV.
//
// Missing encoder artifacts skip the corresponding encoding step; a missing
// regression model is fatal and exits non-zero.
package main

import (
	"fmt"
	"os"

	arg "github.com/alexflint/go-arg"

	"github.com/habistat/habistat/internal/artifact"
	"github.com/habistat/habistat/internal/config"
	"github.com/habistat/habistat/internal/feature"
	"github.com/habistat/habistat/internal/frame"
	"github.com/habistat/habistat/internal/logging"
	"github.com/habistat/habistat/internal/pipeline"
	"github.com/habistat/habistat/internal/preprocess"
)

type args struct {
	Input         string `arg:"positional,required" help:"input CSV of property records"`
	Output        string `arg:"-o,--output" default:"predictions.csv" help:"output CSV path"`
	Model         string `arg:"--model" default:"models/regression.json" help:"regression model artifact"`
	FreqEncoder   string `arg:"--freq-encoder" default:"models/freq_encoder.json" help:"frequency encoder artifact"`
	TargetEncoder string `arg:"--target-encoder" default:"models/target_encoder.json" help:"target encoder artifact"`
	Schema        string `arg:"--schema" default:"models/schema.json" help:"training schema manifest"`
	Reference     string `arg:"--reference" help:"zipcode reference CSV for raw-input merging"`
	Target        string `arg:"--target" default:"price" help:"ground-truth column name"`
	LogLevel      string `arg:"--log-level" default:"warn" help:"log level: debug, info, warn, error"`
}

func (args) Description() string {
	return "habistat-infer runs batch housing price inference over a CSV of records"
}

func main() {
	var a args
	arg.MustParse(&a)

	logging.Init(logging.Config{Level: a.LogLevel, Format: "console"})

	if err := run(&a); err != nil {
		fmt.Fprintf(os.Stderr, "habistat-infer: %v\n", err)
		os.Exit(1)
	}
}

func run(a *args) error {
	reg, err := artifact.Load(config.ArtifactsConfig{
		Model:         a.Model,
		FreqEncoder:   a.FreqEncoder,
		TargetEncoder: a.TargetEncoder,
		Schema:        a.Schema,
	}, a.Target)
	if err != nil {
		return err
	}

	input, err := frame.ReadCSVFile(a.Input)
	if err != nil {
		return err
	}

	cleaner := &preprocess.Cleaner{TargetColumn: a.Target}
	if a.Reference != "" {
		ref, err := preprocess.LoadReference(a.Reference)
		if err != nil {
			return err
		}
		cleaner.Reference = ref
	}

	pipe := pipeline.New(reg, cleaner, featureEngineer{}, a.Target)
	res, err := pipe.Run(input)
	if err != nil {
		return err
	}

	if err := res.Frame.WriteCSVFile(a.Output); err != nil {
		return err
	}
	logging.Info().
		Str("output", a.Output).
		Int("rows", res.Frame.NumRows()).
		Str("input_state", res.State.String()).
		Msg("Batch inference complete")
	return nil
}

// featureEngineer adapts the feature package to the pipeline contract.
type featureEngineer struct{}

func (featureEngineer) AddDateFeatures(f *frame.Frame) error { return feature.AddDateFeatures(f) }
