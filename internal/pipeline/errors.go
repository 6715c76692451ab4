// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package pipeline

import (
	"errors"
	"fmt"
)

// FatalError aborts a pipeline invocation. Recoverable conditions (missing
// encoders, unseen categories, schema unavailability) are handled in place
// and never surface as errors; everything Run returns is fatal for the
// whole batch.
type FatalError struct {
	Stage string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err is (or wraps) a pipeline fatal error.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

func fatal(stage string, err error) error {
	return &FatalError{Stage: stage, Err: err}
}

func fatalf(stage, format string, args ...interface{}) error {
	return &FatalError{Stage: stage, Err: fmt.Errorf(format, args...)}
}
