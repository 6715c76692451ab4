// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package artifact

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/habistat/habistat/internal/frame"
	"github.com/habistat/habistat/internal/model"
)

// Model wraps a fitted predictor together with the feature names it was
// trained on. FeatureNames fixes both the columns selected from an aligned
// frame and their order in the feature vector.
type Model struct {
	kind         string
	featureNames []string
	labels       []string
	linear       *model.Linear
	ensemble     *model.Ensemble
}

// modelFile is the on-disk artifact envelope for predictor models.
type modelFile struct {
	Kind         string       `json:"kind"` // "linear" or "ensemble"
	FeatureNames []string     `json:"feature_names"`
	Labels       []string     `json:"labels,omitempty"`
	Intercept    float64      `json:"intercept"`
	Coefficients []float64    `json:"coefficients"`
	Trees        []model.Tree `json:"trees"`
}

// LoadModel reads a predictor model artifact.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}
	var file modelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact %s: %w", path, err)
	}
	if len(file.FeatureNames) == 0 {
		return nil, fmt.Errorf("model artifact %s declares no feature names", path)
	}

	m := &Model{kind: file.Kind, featureNames: file.FeatureNames, labels: file.Labels}
	switch file.Kind {
	case "linear":
		if len(file.Coefficients) != len(file.FeatureNames) {
			return nil, fmt.Errorf("model artifact %s has %d coefficients for %d features",
				path, len(file.Coefficients), len(file.FeatureNames))
		}
		m.linear = &model.Linear{Intercept: file.Intercept, Coefficients: file.Coefficients}
	case "ensemble":
		m.ensemble = &model.Ensemble{Trees: file.Trees}
		if err := m.ensemble.Validate(); err != nil {
			return nil, fmt.Errorf("model artifact %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unknown model kind %q in %s", file.Kind, path)
	}
	return m, nil
}

// Kind returns the model kind ("linear" or "ensemble").
func (m *Model) Kind() string { return m.kind }

// FeatureNames returns the feature columns the model expects, in order.
// The slice is a copy.
func (m *Model) FeatureNames() []string {
	out := make([]string, len(m.featureNames))
	copy(out, m.featureNames)
	return out
}

// Labels returns the class names a classification artifact maps its integer
// classes to. Empty for regression models and artifacts that omit them.
func (m *Model) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

// Predict runs the model over the frame's feature columns and returns one
// prediction per row. Every feature name must be present in the frame.
func (m *Model) Predict(f *frame.Frame) ([]float64, error) {
	X, err := f.Matrix(m.featureNames)
	if err != nil {
		return nil, fmt.Errorf("feature extraction failed: %w", err)
	}
	switch {
	case m.linear != nil:
		return m.linear.Predict(X)
	case m.ensemble != nil:
		return m.ensemble.Predict(X)
	}
	return nil, fmt.Errorf("model has no predictor")
}

// PredictClass runs majority-vote classification. Only ensemble models
// support class prediction.
func (m *Model) PredictClass(f *frame.Frame) ([]float64, error) {
	if m.ensemble == nil {
		return nil, fmt.Errorf("model kind %q does not support classification", m.kind)
	}
	X, err := f.Matrix(m.featureNames)
	if err != nil {
		return nil, fmt.Errorf("feature extraction failed: %w", err)
	}
	return m.ensemble.PredictClass(X)
}
