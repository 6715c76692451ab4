// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

// Package config defines and loads the Habistat configuration.
//
// Configuration is layered with Koanf v2 (highest priority wins):
// environment variables > YAML config file > built-in defaults.
package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config is the root configuration for both the server and the batch CLI.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	API       APIConfig       `koanf:"api"`
	Forecast  ForecastConfig  `koanf:"forecast"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings for the prediction history store.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Empty string selects an in-memory
	// database (history does not survive restarts).
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads limits DuckDB worker threads. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// ArtifactsConfig locates the trained model and encoder artifacts.
// Relative entries are resolved against Dir.
type ArtifactsConfig struct {
	Dir           string `koanf:"dir"`
	Model         string `koanf:"model"`
	Classifier    string `koanf:"classifier"`
	Clusterer     string `koanf:"clusterer"`
	Recommender   string `koanf:"recommender"`
	Forecaster    string `koanf:"forecaster"`
	FreqEncoder   string `koanf:"freq_encoder"`
	TargetEncoder string `koanf:"target_encoder"`
	Schema        string `koanf:"schema"`
	// TrainingFeatures is the training feature table whose header row serves
	// as the schema source when no schema manifest exists.
	TrainingFeatures string `koanf:"training_features"`
}

// PipelineConfig tunes the inference reconciliation pipeline.
type PipelineConfig struct {
	// TargetColumn is the ground-truth column separated before alignment.
	TargetColumn string `koanf:"target_column"`
	// MaxBatchRows caps the number of rows accepted per request.
	MaxBatchRows int `koanf:"max_batch_rows"`
	// ReferenceTable is an optional CSV joined during clean_and_merge
	// (zipcode -> city/lat/lng reference data).
	ReferenceTable string `koanf:"reference_table"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	DefaultPageSize int           `koanf:"default_page_size"`
	MaxPageSize     int           `koanf:"max_page_size"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// ForecastConfig bounds the market forecast endpoint.
type ForecastConfig struct {
	MaxMonths int           `koanf:"max_months"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ModelPath returns the resolved regression model path.
func (a ArtifactsConfig) ModelPath() string { return a.resolve(a.Model) }

// ClassifierPath returns the resolved tier classifier path.
func (a ArtifactsConfig) ClassifierPath() string { return a.resolve(a.Classifier) }

// ClustererPath returns the resolved clusterer path.
func (a ArtifactsConfig) ClustererPath() string { return a.resolve(a.Clusterer) }

// RecommenderPath returns the resolved recommender path.
func (a ArtifactsConfig) RecommenderPath() string { return a.resolve(a.Recommender) }

// ForecasterPath returns the resolved forecaster path.
func (a ArtifactsConfig) ForecasterPath() string { return a.resolve(a.Forecaster) }

// FreqEncoderPath returns the resolved frequency encoder path.
func (a ArtifactsConfig) FreqEncoderPath() string { return a.resolve(a.FreqEncoder) }

// TargetEncoderPath returns the resolved target encoder path.
func (a ArtifactsConfig) TargetEncoderPath() string { return a.resolve(a.TargetEncoder) }

// SchemaPath returns the resolved schema manifest path.
func (a ArtifactsConfig) SchemaPath() string { return a.resolve(a.Schema) }

// TrainingFeaturesPath returns the resolved training feature table path.
func (a ArtifactsConfig) TrainingFeaturesPath() string { return a.resolve(a.TrainingFeatures) }

func (a ArtifactsConfig) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.Dir, p)
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Pipeline.TargetColumn == "" {
		return fmt.Errorf("pipeline.target_column must not be empty")
	}
	if c.Pipeline.MaxBatchRows <= 0 {
		return fmt.Errorf("pipeline.max_batch_rows must be positive, got %d", c.Pipeline.MaxBatchRows)
	}
	if c.API.DefaultPageSize <= 0 || c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api page sizes invalid: default=%d max=%d",
			c.API.DefaultPageSize, c.API.MaxPageSize)
	}
	if c.Forecast.MaxMonths < 1 {
		return fmt.Errorf("forecast.max_months must be at least 1, got %d", c.Forecast.MaxMonths)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
