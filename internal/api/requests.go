// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package api

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/habistat/habistat/internal/frame"
)

// validate is the shared validator instance; validators are safe for
// concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// PredictRequest is the body for the predict and classify endpoints: a
// record batch in row-oriented form.
type PredictRequest struct {
	Records []map[string]frame.Value `json:"records" validate:"required,min=1"`
}

// Frame converts the request records into a record batch.
func (req *PredictRequest) Frame() *frame.Frame {
	return frame.FromRecords(req.Records)
}

// SegmentRequest is the body for the market segmentation endpoint.
type SegmentRequest struct {
	Records []map[string]frame.Value `json:"records" validate:"required,min=1"`
}

// RecommendRequest is the body for the comparable-listing endpoint: one
// query property plus an optional neighbour count.
type RecommendRequest struct {
	Property map[string]frame.Value `json:"property" validate:"required,min=1"`
	K        int                    `json:"k" validate:"omitempty,min=1,max=50"`
}

// decodeAndValidate decodes a JSON request body into dst and runs struct
// validation. It returns a client-facing error message on failure.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return fmt.Errorf("field %s failed validation rule %s", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}
