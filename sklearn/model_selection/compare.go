package model_selection

import (
	"fmt"
	"math"
	"slices"

	"github.com/YuminosukeSato/tuneflow/metrics"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// DefaultConfidence is the confidence level of comparison intervals.
const DefaultConfidence = 0.95

// CompareOption configures CompareResamples and CompareAll.
type CompareOption func(*compareOptions)

type compareOptions struct {
	confidence float64
}

// WithConfidence sets the confidence level of the difference intervals.
func WithConfidence(level float64) CompareOption {
	return func(o *compareOptions) { o.confidence = level }
}

// MetricDifference is the paired test of one metric, A minus B.
type MetricDifference struct {
	Metric string
	metrics.TTestResult
	// AdjustedPValue is the Bonferroni-adjusted p-value; equal to PValue
	// for a single comparison.
	AdjustedPValue float64
}

// Comparison is the paired comparison of two resample distributions.
type Comparison struct {
	A, B        string
	Differences []MetricDifference
}

// Difference returns the entry for metric.
func (c *Comparison) Difference(metric string) (MetricDifference, bool) {
	for _, d := range c.Differences {
		if d.Metric == metric {
			return d, true
		}
	}
	return MetricDifference{}, false
}

// CompareResamples runs a paired t-test of a against b for every metric
// both record. The cycles are paired by (repeat, fold), so both
// distributions must come from the same resamples. Metrics with fewer than
// two cycles defined in both are left out.
func CompareResamples(a, b *ResampleDistribution, opts ...CompareOption) (*Comparison, error) {
	o := compareOptions{confidence: DefaultConfidence}
	for _, opt := range opts {
		opt(&o)
	}
	if !slices.Equal(a.Keys(), b.Keys()) {
		return nil, errors.NewValidationError("resamples", "distributions were not computed on the same resamples", fmt.Sprintf("%s vs %s", a.Model, b.Model))
	}
	cmp := &Comparison{A: a.Model, B: b.Model}
	for _, m := range a.Metrics {
		if !slices.Contains(b.Metrics, m) {
			continue
		}
		res, err := metrics.PairedTTest(a.Values(m), b.Values(m), o.confidence)
		var insufficient *errors.InsufficientDataError
		if errors.As(err, &insufficient) {
			// 定義された値のペアが 2 未満の指標は比較しない
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "compare %s vs %s on %s", a.Model, b.Model, m)
		}
		cmp.Differences = append(cmp.Differences, MetricDifference{Metric: m, TTestResult: res, AdjustedPValue: res.PValue})
	}
	if len(cmp.Differences) == 0 {
		return nil, errors.NewValueError("CompareResamples", "distributions share no comparable metric")
	}
	return cmp, nil
}

// CompareAll compares every pair of distributions (i < j, in order) and
// adjusts the p-values by Bonferroni over the number of pairs.
func CompareAll(dists []*ResampleDistribution, opts ...CompareOption) ([]*Comparison, error) {
	if len(dists) < 2 {
		return nil, errors.NewInsufficientDataError("CompareAll", "", len(dists), 2)
	}
	var out []*Comparison
	for i := range dists {
		for j := i + 1; j < len(dists); j++ {
			cmp, err := CompareResamples(dists[i], dists[j], opts...)
			if err != nil {
				return nil, err
			}
			out = append(out, cmp)
		}
	}
	pairs := float64(len(out))
	for _, cmp := range out {
		for k := range cmp.Differences {
			d := &cmp.Differences[k]
			d.AdjustedPValue = math.Min(1, d.PValue*pairs)
		}
	}
	return out, nil
}
