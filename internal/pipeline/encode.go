// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package pipeline

import (
	"github.com/habistat/habistat/internal/artifact"
	"github.com/habistat/habistat/internal/frame"
	"github.com/habistat/habistat/internal/logging"
	"github.com/habistat/habistat/internal/metrics"
)

// applyEncoder runs one encoder over the batch: the raw categorical column
// is replaced by the encoded output column. Rows whose transform fails take
// zero; their indices are returned so fallback application stays visible.
// A batch without the raw column passes through untouched, which makes
// encoding idempotent.
func applyEncoder(f *frame.Frame, enc artifact.Encoder, label string) []int {
	if enc == nil || !f.Has(enc.Column()) {
		return nil
	}
	raw, _ := f.Column(enc.Column())
	encoded := make([]frame.Value, len(raw))
	var fallbacks []int
	for i, v := range raw {
		out, err := enc.Transform(v.Text())
		if err != nil {
			encoded[i] = frame.Num(0)
			fallbacks = append(fallbacks, i)
			continue
		}
		encoded[i] = frame.Num(out)
	}
	// SetColumn cannot fail here: length matches the source column.
	f.SetColumn(enc.Output(), encoded)
	f.Drop(enc.Column())

	if len(fallbacks) > 0 {
		logging.Warn().
			Str("encoder", label).
			Str("column", enc.Column()).
			Int("rows", len(fallbacks)).
			Msg("Encoder fallback applied for unseen categories")
	}
	metrics.RecordEncoderFallbacks(label, len(fallbacks))
	return fallbacks
}
