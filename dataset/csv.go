package dataset

import (
	"encoding/csv"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// ReadOptions controls how tabular files become a Dataset.
type ReadOptions struct {
	// Positive is the positive label level. Empty selects the first level
	// in sorted order.
	Positive string
	// Categorical forces the named columns to be categorical even when
	// every value parses as a number.
	Categorical []string
	// Drop lists columns to ignore (row ids and the like).
	Drop []string
}

// ReadCSV reads a CSV table with a header row. The column named label is
// the class label; every other column is numeric when all of its values
// parse as float64, categorical otherwise.
func ReadCSV(r io.Reader, label string, opts ReadOptions) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "dataset: read csv")
	}
	return fromRows(rows, label, opts)
}

// fromRows builds a Dataset from a header row followed by data rows.
func fromRows(rows [][]string, label string, opts ReadOptions) (*Dataset, error) {
	if len(rows) < 2 {
		return nil, errors.NewModelError("dataset.read", "empty data", errors.ErrEmptyData)
	}
	header := rows[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	labelCol := slices.Index(header, label)
	if labelCol < 0 {
		return nil, errors.NewValidationError("label", "label column not found", label)
	}

	data := rows[1:]
	for i, row := range data {
		if len(row) < len(header) {
			// スプレッドシートは末尾の空セルを省略する
			padded := make([]string, len(header))
			copy(padded, row)
			data[i] = padded
		} else if len(row) > len(header) {
			return nil, errors.NewDimensionError("dataset.read(row "+strconv.Itoa(i+2)+")", len(header), len(row), 1)
		}
	}

	labels := make([]string, len(data))
	for i, row := range data {
		labels[i] = strings.TrimSpace(row[labelCol])
		if labels[i] == "" {
			return nil, errors.NewValidationError(label, "missing label", i+2)
		}
	}

	var features []Feature
	for j, name := range header {
		if j == labelCol || slices.Contains(opts.Drop, name) {
			continue
		}
		raw := make([]string, len(data))
		for i, row := range data {
			raw[i] = strings.TrimSpace(row[j])
		}
		if !slices.Contains(opts.Categorical, name) {
			if nums, ok := parseFloats(raw); ok {
				features = append(features, NumericFeature(name, nums))
				continue
			}
		}
		features = append(features, CategoricalFeature(name, raw))
	}

	var dsOpts []Option
	if opts.Positive != "" {
		dsOpts = append(dsOpts, WithPositiveClass(opts.Positive))
	}
	return New(features, label, labels, dsOpts...)
}

func parseFloats(raw []string) ([]float64, bool) {
	out := make([]float64, len(raw))
	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
