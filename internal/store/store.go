// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

// Package store persists prediction history in DuckDB. Every served
// prediction is recorded with its input features so the history and trend
// endpoints can replay what the models returned over time.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/habistat/habistat/internal/config"
	"github.com/habistat/habistat/internal/logging"
	"github.com/habistat/habistat/internal/metrics"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS predictions (
	id              VARCHAR PRIMARY KEY,
	created_at      TIMESTAMP NOT NULL,
	source          VARCHAR NOT NULL,
	predicted_price DOUBLE NOT NULL,
	actual_price    DOUBLE,
	features        VARCHAR
);
CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions (created_at);
`

// Store is the DuckDB-backed prediction history store. Safe for concurrent
// use; database/sql serializes access to the single DuckDB connection pool.
type Store struct {
	conn *sql.DB
}

// Prediction is one persisted prediction row.
type Prediction struct {
	ID             string                 `json:"id"`
	CreatedAt      time.Time              `json:"created_at"`
	Source         string                 `json:"source"` // "api" or "batch"
	PredictedPrice float64                `json:"predicted_price"`
	ActualPrice    *float64               `json:"actual_price,omitempty"`
	Features       map[string]interface{} `json:"features,omitempty"`
}

// MonthlyStat is one month of aggregated prediction history.
type MonthlyStat struct {
	Month    string  `json:"month"` // YYYY-MM
	AvgPrice float64 `json:"avg_price"`
	Count    int     `json:"count"`
}

// New opens (or creates) the DuckDB database and initializes the schema.
// An empty path selects an in-memory database.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "512MB"
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	connStr := fmt.Sprintf(
		"%s?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{conn: conn}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logging.Info().Str("path", path).Int("threads", threads).Msg("Prediction store ready")
	return s, nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Save persists a batch of predictions in a single transaction. The ID and
// CreatedAt fields are assigned here; callers fill the rest.
func (s *Store) Save(ctx context.Context, source string, preds []Prediction) error {
	if len(preds) == 0 {
		return nil
	}
	start := time.Now()
	err := s.save(ctx, source, preds)
	metrics.RecordDBQuery("insert", "predictions", time.Since(start), err)
	return err
}

func (s *Store) save(ctx context.Context, source string, preds []Prediction) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO predictions (id, created_at, source, predicted_price, actual_price, features)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range preds {
		p := &preds[i]
		p.ID = uuid.NewString()
		p.CreatedAt = now
		p.Source = source

		var features interface{}
		if p.Features != nil {
			data, err := json.Marshal(p.Features)
			if err != nil {
				return fmt.Errorf("failed to encode features: %w", err)
			}
			features = string(data)
		}
		var actual interface{}
		if p.ActualPrice != nil {
			actual = *p.ActualPrice
		}
		if _, err := stmt.ExecContext(ctx, p.ID, now, source, p.PredictedPrice, actual, features); err != nil {
			return fmt.Errorf("failed to insert prediction: %w", err)
		}
	}
	return tx.Commit()
}

// Recent returns predictions newest first, plus the total row count for
// pagination.
func (s *Store) Recent(ctx context.Context, limit, offset int) ([]Prediction, int, error) {
	start := time.Now()
	preds, total, err := s.recent(ctx, limit, offset)
	metrics.RecordDBQuery("select", "predictions", time.Since(start), err)
	return preds, total, err
}

func (s *Store) recent(ctx context.Context, limit, offset int) ([]Prediction, int, error) {
	var total int
	if err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM predictions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count predictions: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, created_at, source, predicted_price, actual_price, features
		 FROM predictions
		 ORDER BY created_at DESC, id
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var out []Prediction
	for rows.Next() {
		var p Prediction
		var actual sql.NullFloat64
		var features sql.NullString
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.Source, &p.PredictedPrice, &actual, &features); err != nil {
			return nil, 0, fmt.Errorf("failed to scan prediction: %w", err)
		}
		if actual.Valid {
			v := actual.Float64
			p.ActualPrice = &v
		}
		if features.Valid && features.String != "" {
			if err := json.Unmarshal([]byte(features.String), &p.Features); err != nil {
				logging.Warn().Err(err).Str("id", p.ID).Msg("Stored features are not valid JSON")
			}
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// MonthlyTrend aggregates prediction history into per-month averages,
// oldest month first.
func (s *Store) MonthlyTrend(ctx context.Context) ([]MonthlyStat, error) {
	start := time.Now()
	stats, err := s.monthlyTrend(ctx)
	metrics.RecordDBQuery("aggregate", "predictions", time.Since(start), err)
	return stats, err
}

func (s *Store) monthlyTrend(ctx context.Context) ([]MonthlyStat, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT strftime(created_at, '%Y-%m') AS month,
		        AVG(predicted_price),
		        COUNT(*)
		 FROM predictions
		 GROUP BY month
		 ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate prediction history: %w", err)
	}
	defer rows.Close()

	var out []MonthlyStat
	for rows.Next() {
		var m MonthlyStat
		if err := rows.Scan(&m.Month, &m.AvgPrice, &m.Count); err != nil {
			return nil, fmt.Errorf("failed to scan monthly stat: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
