package model_selection

import (
	"context"
	"math"
	"slices"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/core/parallel"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// ResampleValue holds the hold-out metrics of one cycle.
type ResampleValue struct {
	Repeat    int
	Fold      int
	Bootstrap bool
	HoldOut   int // hold-out size
	Metrics   map[string]float64
}

// Name is the cycle label, see Resample.Name.
func (v ResampleValue) Name() string {
	return Resample{Repeat: v.Repeat, Fold: v.Fold, Bootstrap: v.Bootstrap}.Name()
}

// ResampleDistribution is the per-cycle performance of one configuration
// of one model, ordered by repeat then fold.
type ResampleDistribution struct {
	Model     string
	Config    model.Config
	Metrics   []string
	Resamples []ResampleValue
}

// Keys returns the (repeat, fold) key of every cycle in order.
func (d *ResampleDistribution) Keys() [][2]int {
	keys := make([][2]int, len(d.Resamples))
	for i, v := range d.Resamples {
		keys[i] = [2]int{v.Repeat, v.Fold}
	}
	return keys
}

// Values returns metric over every cycle, NaN where it was undefined.
func (d *ResampleDistribution) Values(metric string) []float64 {
	out := make([]float64, len(d.Resamples))
	for i, v := range d.Resamples {
		x, ok := v.Metrics[metric]
		if !ok {
			x = math.NaN()
		}
		out[i] = x
	}
	return out
}

func (d *ResampleDistribution) defined(metric string) stats.Float64Data {
	var out stats.Float64Data
	for _, v := range d.Values(metric) {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Mean is the mean of metric over cycles where it is defined, NaN if none.
func (d *ResampleDistribution) Mean(metric string) float64 {
	m, err := stats.Mean(d.defined(metric))
	if err != nil {
		return math.NaN()
	}
	return m
}

// StdDev is the sample standard deviation of metric, NaN with fewer than
// two defined values.
func (d *ResampleDistribution) StdDev(metric string) float64 {
	data := d.defined(metric)
	if len(data) < 2 {
		return math.NaN()
	}
	sd, err := stats.StandardDeviationSample(data)
	if err != nil {
		return math.NaN()
	}
	return sd
}

// StdErr is StdDev over the square root of the defined count.
func (d *ResampleDistribution) StdErr(metric string) float64 {
	n := len(d.defined(metric))
	if n < 2 {
		return math.NaN()
	}
	return d.StdDev(metric) / math.Sqrt(float64(n))
}

// ResampleSummary is the six-number summary of one metric.
type ResampleSummary struct {
	Min, Q1, Median, Mean, Q3, Max float64
	NAs                            int
}

// Summary summarises metric like R's summary(): quartiles are taken over
// the defined values and NAs counts the undefined ones.
func (d *ResampleDistribution) Summary(metric string) ResampleSummary {
	data := d.defined(metric)
	s := ResampleSummary{NAs: len(d.Resamples) - len(data)}
	if len(data) == 0 {
		nan := math.NaN()
		s.Min, s.Q1, s.Median, s.Mean, s.Q3, s.Max = nan, nan, nan, nan, nan, nan
		return s
	}
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	s.Median, _ = stats.Median(data)
	s.Mean, _ = stats.Mean(data)
	var err error
	if s.Q1, err = stats.Percentile(data, 25); err != nil {
		s.Q1 = s.Min
	}
	if s.Q3, err = stats.Percentile(data, 75); err != nil {
		s.Q3 = s.Max
	}
	return s
}

// DeriveSeed mixes the resampling seed with a cycle position (splitmix64),
// so each cycle's learner gets an independent, reproducible stream.
// Repeat 0, fold 0 is the final refit.
func DeriveSeed(seed uint64, repeat, fold int) uint64 {
	z := seed ^ uint64(repeat)<<32 ^ uint64(fold)
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// subsetRows copies the given rows of X.
func subsetRows(X mat.Matrix, rows []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(r, j))
		}
	}
	return out
}

func subsetCodes(y []int, rows []int) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = y[r]
	}
	return out
}

// Evaluate estimates the performance of one configuration: for every
// resample it fits family on Train and scores the hold-out rows, running
// cycles in parallel on control.Workers goroutines. The first failing cycle
// fails the configuration with a FitFailure naming its repeat and fold.
func Evaluate(ctx context.Context, family model.Family, X mat.Matrix, y []int, cfg model.Config, resamples []Resample, control Control) (*ResampleDistribution, error) {
	n, _ := X.Dims()
	if n != len(y) {
		return nil, errors.NewDimensionError("Evaluate", n, len(y), 0)
	}
	if len(resamples) == 0 {
		return nil, errors.NewValueError("Evaluate", "no resamples")
	}

	values := make([]ResampleValue, len(resamples))
	err := parallel.ForEach(ctx, len(resamples), control.Workers, func(ctx context.Context, i int) error {
		rs := resamples[i]
		var probs []float64
		err := errors.SafeExecute(family.Name()+".Fit", func() error {
			clf, err := family.Fit(subsetRows(X, rs.Train), subsetCodes(y, rs.Train), cfg, DeriveSeed(control.Seed, rs.Repeat, rs.Fold))
			if err != nil {
				return err
			}
			if len(rs.HoldOut) == 0 {
				return nil
			}
			probs, err = clf.PredictProba(subsetRows(X, rs.HoldOut))
			return err
		})
		if err != nil {
			return errors.NewFitFailure(family.Name(), cfg.String(), rs.Repeat, rs.Fold, err)
		}
		values[i] = ResampleValue{
			Repeat:    rs.Repeat,
			Fold:      rs.Fold,
			Bootstrap: rs.Bootstrap,
			HoldOut:   len(rs.HoldOut),
			Metrics:   summarize(control.Summary, subsetCodes(y, rs.HoldOut), probs),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(values, func(a, b ResampleValue) int {
		if a.Repeat != b.Repeat {
			return a.Repeat - b.Repeat
		}
		return a.Fold - b.Fold
	})
	return &ResampleDistribution{
		Model:     family.Name(),
		Config:    cfg,
		Metrics:   control.Summary.Metrics(),
		Resamples: values,
	}, nil
}
