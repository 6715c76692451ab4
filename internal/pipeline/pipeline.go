// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package pipeline

import (
	"time"

	"github.com/habistat/habistat/internal/artifact"
	"github.com/habistat/habistat/internal/frame"
	"github.com/habistat/habistat/internal/logging"
	"github.com/habistat/habistat/internal/metrics"
)

// Predictor is the opaque model contract the pipeline invokes: one numeric
// prediction per row, plus the declared feature names used for alias
// resolution. artifact.Model satisfies it.
type Predictor interface {
	FeatureNames() []string
	Predict(*frame.Frame) ([]float64, error)
}

// Preprocessor cleans a raw batch. The pipeline calls the three operations
// in sequence and trusts the result without inspecting intermediate state.
type Preprocessor interface {
	CleanAndMerge(*frame.Frame) (*frame.Frame, error)
	DropDuplicates(*frame.Frame) *frame.Frame
	RemoveOutliers(*frame.Frame) *frame.Frame
}

// FeatureEngineer derives calendar features from a raw date column.
type FeatureEngineer interface {
	AddDateFeatures(*frame.Frame) error
}

// Pipeline reconciles an input batch against the training schema and runs
// the predictor over it. All fields are read-only during Run, so a single
// Pipeline may serve concurrent invocations.
type Pipeline struct {
	Model         Predictor
	Schema        *artifact.Schema
	FreqEncoder   artifact.Encoder
	TargetEncoder artifact.Encoder

	// Preprocessor and Features run only on batches detected as raw.
	// Either may be nil, skipping the stage.
	Preprocessor Preprocessor
	Features     FeatureEngineer

	// TargetColumn is the ground-truth column separated before alignment
	// and re-attached as actual_price when its length still matches.
	TargetColumn string
}

// New builds a pipeline from a loaded artifact registry.
func New(reg *artifact.Registry, pre Preprocessor, fe FeatureEngineer, target string) *Pipeline {
	return &Pipeline{
		Model:         reg.Regression,
		Schema:        reg.Schema,
		FreqEncoder:   reg.FreqEncoder,
		TargetEncoder: reg.TargetEnc,
		Preprocessor:  pre,
		Features:      fe,
		TargetColumn:  target,
	}
}

// Result is the outcome of one pipeline invocation.
type Result struct {
	// Frame is the aligned batch extended with predicted_price and,
	// when the preserved ground truth still matches, actual_price.
	Frame *frame.Frame
	// State records how the input batch was classified.
	State State
	// FreqFallbacks and TargetFallbacks list the row indices where the
	// respective encoder substituted zero for an unseen category.
	FreqFallbacks   []int
	TargetFallbacks []int
	// FilledColumns and DroppedColumns record the alignment adjustments.
	FilledColumns  []string
	DroppedColumns []string
	// Truncated is set when the predictor returned more values than rows.
	Truncated bool
	// GroundTruthOmitted is set when actual_price was dropped because its
	// length no longer matched the output row count.
	GroundTruthOmitted bool
}

// Run processes one batch start to finish. The input frame is not modified.
// Every returned error is fatal for the whole batch; recoverable conditions
// are absorbed and reported through the Result and the log.
func (p *Pipeline) Run(input *frame.Frame) (res *Result, err error) {
	state := Detect(input)
	defer func() {
		rows := 0
		if res != nil && res.Frame != nil {
			rows = res.Frame.NumRows()
		}
		metrics.RecordPipelineRun(state.String(), rows, err)
	}()

	f := input.Copy()
	res = &Result{State: state}

	if state == StateRaw {
		if f, err = p.preprocess(f); err != nil {
			return nil, err
		}
		if err = p.engineer(f); err != nil {
			return nil, err
		}
	}

	p.encode(f, res)
	p.filterLeakage(f)
	truth := p.popGroundTruth(f)
	p.align(f, res)

	preds, err := p.predict(f)
	if err != nil {
		return nil, err
	}
	if err = p.compose(f, preds, truth, res); err != nil {
		return nil, err
	}
	res.Frame = f
	return res, nil
}

func (p *Pipeline) preprocess(f *frame.Frame) (*frame.Frame, error) {
	if p.Preprocessor == nil {
		return f, nil
	}
	start := time.Now()
	defer func() { metrics.RecordStage("preprocess", time.Since(start)) }()

	out, err := p.Preprocessor.CleanAndMerge(f)
	if err != nil {
		return nil, fatal("preprocess", err)
	}
	out = p.Preprocessor.DropDuplicates(out)
	out = p.Preprocessor.RemoveOutliers(out)
	return out, nil
}

func (p *Pipeline) engineer(f *frame.Frame) error {
	if p.Features == nil {
		return nil
	}
	start := time.Now()
	defer func() { metrics.RecordStage("features", time.Since(start)) }()
	if err := p.Features.AddDateFeatures(f); err != nil {
		return fatal("features", err)
	}
	return nil
}

func (p *Pipeline) encode(f *frame.Frame, res *Result) {
	start := time.Now()
	defer func() { metrics.RecordStage("encode", time.Since(start)) }()
	res.FreqFallbacks = applyEncoder(f, p.FreqEncoder, "frequency")
	res.TargetFallbacks = applyEncoder(f, p.TargetEncoder, "target")
}

// filterLeakage drops the columns excluded from features at training time.
// The ground-truth column survives this stage; it is separated next and
// re-attached to the output.
func (p *Pipeline) filterLeakage(f *frame.Frame) {
	if p.Schema == nil {
		return
	}
	for _, name := range p.Schema.Excluded {
		if name == p.TargetColumn {
			continue
		}
		f.Drop(name)
	}
}

// popGroundTruth removes the target column from the batch and returns its
// values, or nil when the batch carries no ground truth.
func (p *Pipeline) popGroundTruth(f *frame.Frame) []frame.Value {
	if p.TargetColumn == "" || !f.Has(p.TargetColumn) {
		return nil
	}
	vals, _ := f.Column(p.TargetColumn)
	truth := make([]frame.Value, len(vals))
	copy(truth, vals)
	f.Drop(p.TargetColumn)
	return truth
}

// align reconciles the batch against the training schema. Without schema
// columns the batch passes through unaligned; prediction may then fail if
// the model is strict about shape.
func (p *Pipeline) align(f *frame.Frame, res *Result) {
	start := time.Now()
	defer func() { metrics.RecordStage("align", time.Since(start)) }()

	if p.Schema == nil || len(p.Schema.Columns) == 0 {
		logging.Warn().Msg("No training schema available, passing batch through unaligned")
		return
	}
	res.FilledColumns, res.DroppedColumns = align(f, p.Schema.Columns)
	metrics.RecordAlignment(len(res.FilledColumns), len(res.DroppedColumns))
	if len(res.FilledColumns) > 0 || len(res.DroppedColumns) > 0 {
		logging.Debug().
			Strs("filled", res.FilledColumns).
			Strs("dropped", res.DroppedColumns).
			Msg("Aligned batch to training schema")
	}
}

func (p *Pipeline) predict(f *frame.Frame) ([]float64, error) {
	start := time.Now()
	defer func() { metrics.RecordStage("predict", time.Since(start)) }()

	// The model may declare the encoded city column under its alias.
	resolveAliases(f, p.Model.FeatureNames())

	preds, err := p.Model.Predict(f)
	if err != nil {
		return nil, fatal("predict", err)
	}
	return preds, nil
}

// compose appends predicted_price and, when safe, actual_price. Predictions
// longer than the batch are truncated to fit; shorter is fatal.
func (p *Pipeline) compose(f *frame.Frame, preds []float64, truth []frame.Value, res *Result) error {
	rows := f.NumRows()
	if len(preds) < rows {
		return fatalf("compose", "predictor returned %d values for %d rows", len(preds), rows)
	}
	if len(preds) > rows {
		logging.Warn().
			Int("predictions", len(preds)).
			Int("rows", rows).
			Msg("Truncating prediction vector to batch row count")
		metrics.PredictionsTruncated.Inc()
		preds = preds[:rows]
		res.Truncated = true
	}
	if err := f.SetNumbers("predicted_price", preds); err != nil {
		return fatal("compose", err)
	}
	if truth != nil {
		if len(truth) == rows {
			if err := f.SetColumn("actual_price", truth); err != nil {
				return fatal("compose", err)
			}
		} else {
			logging.Warn().
				Int("truth", len(truth)).
				Int("rows", rows).
				Msg("Ground truth length mismatch, omitting actual_price")
			metrics.GroundTruthOmitted.Inc()
			res.GroundTruthOmitted = true
		}
	}
	return nil
}
