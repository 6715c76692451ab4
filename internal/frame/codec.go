// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package frame

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"
)

// MarshalJSON encodes the value as a JSON number, string, or null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindString:
		return json.Marshal(v.str)
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes a JSON number, string, bool, or null.
// Booleans map to 1/0 so boolean feature flags survive the trip.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Null()
	case float64:
		*v = Num(t)
	case string:
		*v = Str(t)
	case bool:
		if t {
			*v = Num(1)
		} else {
			*v = Num(0)
		}
	default:
		return fmt.Errorf("unsupported cell type %T", raw)
	}
	return nil
}

// ReadCSV parses a header-led CSV stream into a frame. Cells that parse as
// floats become numbers, empty cells become null, everything else stays a
// string. Row order follows the stream.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make([][]Value, len(header))
	rows := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", rows+1, err)
		}
		for j := range header {
			var v Value
			if j < len(rec) {
				v = parseCell(rec[j])
			}
			cols[j] = append(cols[j], v)
		}
		rows++
	}

	f := New()
	f.rows = rows
	for j, name := range header {
		f.order = append(f.order, name)
		f.columns[name] = cols[j]
	}
	return f, nil
}

// ReadCSVFile reads a CSV file into a frame.
func ReadCSVFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()
	return ReadCSV(file)
}

// parseCell converts one CSV cell to a value.
func parseCell(s string) Value {
	if s == "" || s == "NA" || s == "NaN" || s == "null" {
		return Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Num(f)
	}
	return Str(s)
}

// WriteCSV writes the frame with a header row. Null cells are empty.
func (f *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.order); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	row := make([]string, len(f.order))
	for i := 0; i < f.rows; i++ {
		for j, name := range f.order {
			row[j] = f.columns[name][i].Text()
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes the frame to a CSV file.
func (f *Frame) WriteCSVFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := f.WriteCSV(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
