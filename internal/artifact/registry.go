// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package artifact

import (
	"fmt"

	"github.com/habistat/habistat/internal/config"
	"github.com/habistat/habistat/internal/logging"
	"github.com/habistat/habistat/internal/model"
)

// Registry bundles every loaded artifact. The regression model is mandatory;
// the remaining artifacts are optional and their endpoints report
// unavailability when absent. A Registry is immutable after Load.
type Registry struct {
	Regression  *Model
	Classifier  *Model
	Clusterer   *Clusterer
	Recommender *Recommender
	Forecaster  *model.Holt
	FreqEncoder Encoder
	TargetEnc   Encoder
	Schema      *Schema
}

// Load reads all configured artifacts. Failure to load the regression model
// or to derive any schema at all is fatal; optional artifacts log a warning
// and leave their slot nil.
func Load(cfg config.ArtifactsConfig, targetColumn string) (*Registry, error) {
	reg := &Registry{}

	var err error
	reg.Regression, err = LoadModel(cfg.ModelPath())
	if err != nil {
		return nil, fmt.Errorf("regression model is required: %w", err)
	}
	logging.Info().
		Str("path", cfg.ModelPath()).
		Str("kind", reg.Regression.Kind()).
		Int("features", len(reg.Regression.FeatureNames())).
		Msg("Loaded regression model")

	reg.Schema = loadSchema(cfg, targetColumn, reg.Regression.FeatureNames())

	if cfg.FreqEncoder != "" {
		reg.FreqEncoder = loadOptionalEncoder(cfg.FreqEncoderPath(), "frequency")
	}
	if cfg.TargetEncoder != "" {
		reg.TargetEnc = loadOptionalEncoder(cfg.TargetEncoderPath(), "target")
	}

	if cfg.Classifier != "" {
		if m, err := LoadModel(cfg.ClassifierPath()); err != nil {
			logging.Warn().Err(err).Str("path", cfg.ClassifierPath()).
				Msg("Tier classifier unavailable")
		} else {
			reg.Classifier = m
		}
	}
	if cfg.Clusterer != "" {
		if c, err := LoadClusterer(cfg.ClustererPath()); err != nil {
			logging.Warn().Err(err).Str("path", cfg.ClustererPath()).
				Msg("Market clusterer unavailable")
		} else {
			reg.Clusterer = c
		}
	}
	if cfg.Recommender != "" {
		if r, err := LoadRecommender(cfg.RecommenderPath()); err != nil {
			logging.Warn().Err(err).Str("path", cfg.RecommenderPath()).
				Msg("Listing recommender unavailable")
		} else {
			reg.Recommender = r
		}
	}
	if cfg.Forecaster != "" {
		if h, err := LoadForecaster(cfg.ForecasterPath()); err != nil {
			logging.Warn().Err(err).Str("path", cfg.ForecasterPath()).
				Msg("Market forecaster unavailable")
		} else {
			reg.Forecaster = h
		}
	}

	return reg, nil
}

// loadSchema prefers the schema manifest, falls back to the training feature
// table header, and finally to the regression model's feature names.
func loadSchema(cfg config.ArtifactsConfig, targetColumn string, modelFeatures []string) *Schema {
	if cfg.Schema != "" {
		s, err := LoadSchema(cfg.SchemaPath())
		if err == nil {
			return s
		}
		logging.Warn().Err(err).Str("path", cfg.SchemaPath()).
			Msg("Schema manifest unavailable, trying training feature table")
	}
	if cfg.TrainingFeatures != "" {
		s, err := SchemaFromTrainingTable(cfg.TrainingFeaturesPath(), targetColumn)
		if err == nil {
			return s
		}
		logging.Warn().Err(err).Str("path", cfg.TrainingFeaturesPath()).
			Msg("Training feature table unavailable, deriving schema from model")
	}
	return &Schema{
		Columns:  modelFeatures,
		Excluded: append([]string(nil), DefaultExcluded...),
		Target:   targetColumn,
	}
}

func loadOptionalEncoder(path, kind string) Encoder {
	enc, err := LoadEncoder(path)
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Str("kind", kind).
			Msg("Encoder unavailable")
		return nil
	}
	return enc
}
