package model_selection

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/dataset"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
	"github.com/YuminosukeSato/tuneflow/pkg/log"
)

// DefaultTuneLength is the number of values per tuned axis of a family's
// default grid.
const DefaultTuneLength = 3

// TrainOption configures Train.
type TrainOption func(*trainOptions)

type trainOptions struct {
	grid       *model.Grid
	tuneLength int
	metric     string
	logger     log.Logger
	name       string
}

// WithGrid searches grid instead of the family default grid.
func WithGrid(grid *model.Grid) TrainOption {
	return func(o *trainOptions) { o.grid = grid }
}

// WithTuneLength sets how many values each axis of the default grid gets.
func WithTuneLength(n int) TrainOption {
	return func(o *trainOptions) { o.tuneLength = n }
}

// WithMetric selects the optimised metric. It must be one the control
// summary computes.
func WithMetric(name string) TrainOption {
	return func(o *trainOptions) { o.metric = name }
}

// WithLogger routes progress logs to l.
func WithLogger(l log.Logger) TrainOption {
	return func(o *trainOptions) { o.logger = l }
}

// WithName labels the model in results and logs; defaults to the family name.
func WithName(name string) TrainOption {
	return func(o *trainOptions) { o.name = name }
}

// TuningRow is the resampled performance of one grid configuration.
type TuningRow struct {
	Config model.Config
	Means  map[string]float64
	SDs    map[string]float64
	Failed bool
	Err    error
}

// TuningResult is the outcome of a grid search.
type TuningResult struct {
	Model    string
	Metric   string
	Maximize bool
	// Rows follow grid enumeration order.
	Rows []TuningRow
	// Best indexes Rows.
	Best int
	// Resamples are the cycles every configuration was evaluated on.
	Resamples []Resample
	// Distributions[i] belongs to Rows[i]; nil for failed rows.
	Distributions []*ResampleDistribution
}

// BestConfig returns the selected configuration.
func (r *TuningResult) BestConfig() model.Config { return r.Rows[r.Best].Config }

// BestDistribution returns the resample distribution of the selected configuration.
func (r *TuningResult) BestDistribution() *ResampleDistribution { return r.Distributions[r.Best] }

// Train tunes family on ds over a grid with the resampling policy control,
// selects a configuration and refits it on all of ds. Every configuration
// is scored on the same resamples, and so is every model trained with an
// equal control, which keeps their distributions paired.
func Train(ctx context.Context, ds *dataset.Dataset, family model.Family, control Control, opts ...TrainOption) (*FittedModel, error) {
	o := trainOptions{tuneLength: DefaultTuneLength, metric: control.Summary.DefaultMetric(), name: family.Name()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("model_selection")
	}
	if err := control.Validate(); err != nil {
		return nil, err
	}
	if !ds.HasLabels() {
		return nil, errors.NewValueError("Train", "training data has no labels")
	}
	if !slices.Contains(control.Summary.Metrics(), o.metric) {
		return nil, errors.NewValidationError("metric", "not computed by summary "+string(control.Summary), o.metric)
	}

	X := ds.Design()
	y := ds.Codes()
	grid := o.grid
	if grid == nil {
		// tune length は既定グリッドにだけ効く
		if o.tuneLength < 1 {
			return nil, errors.NewValidationError("tune_length", "must be at least 1", o.tuneLength)
		}
		grid = family.DefaultGrid(X, y, o.tuneLength, control.Seed)
	}
	if err := grid.Validate(family); err != nil {
		return nil, err
	}
	resamples, err := Resamples(y, control)
	if err != nil {
		return nil, err
	}

	logger := o.logger.With(log.ModelNameKey, o.name, log.OperationKey, log.OperationTrain)
	configs := grid.Configs()
	logger.Info("tuning started",
		log.CandidatesKey, len(configs),
		log.CyclesKey, len(resamples),
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, ds.NumFeatures(),
		log.MetricNameKey, o.metric,
		log.RandomSeedKey, control.Seed,
	)

	res := &TuningResult{
		Model:         o.name,
		Metric:        o.metric,
		Maximize:      Maximize(o.metric),
		Rows:          make([]TuningRow, len(configs)),
		Resamples:     resamples,
		Distributions: make([]*ResampleDistribution, len(configs)),
	}
	named := namedFamily{Family: family, name: o.name}
	var failures []error
	for i, cfg := range configs {
		start := time.Now()
		dist, err := Evaluate(ctx, named, X, y, cfg, resamples, control)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		row := TuningRow{Config: cfg}
		if err != nil {
			row.Failed, row.Err = true, err
			failures = append(failures, err)
			logger.Warn("configuration failed", err, log.ConfigKey, cfg.String())
		} else {
			row.Means = make(map[string]float64, len(dist.Metrics))
			row.SDs = make(map[string]float64, len(dist.Metrics))
			for _, m := range dist.Metrics {
				row.Means[m] = dist.Mean(m)
				row.SDs[m] = dist.StdDev(m)
			}
			res.Distributions[i] = dist
			if logger.Enabled(ctx, log.LevelDebug) {
				logger.Debug("configuration evaluated",
					log.ConfigKey, cfg.String(),
					log.MetricNameKey, o.metric,
					log.MetricValueKey, row.Means[o.metric],
					log.CyclesKey, len(dist.Resamples),
					log.DurationMsKey, time.Since(start).Milliseconds(),
				)
			}
		}
		res.Rows[i] = row
	}
	if len(failures) == len(configs) {
		return nil, errors.NewNoFeasibleConfigurationError(o.name, failures)
	}

	res.Best = selectConfig(res, control.Selection)
	best := res.Rows[res.Best]
	logger.Info("configuration selected",
		log.ConfigKey, best.Config.String(),
		log.MetricNameKey, o.metric,
		log.MetricValueKey, best.Means[o.metric],
	)

	var clf model.Classifier
	err = errors.SafeExecute(o.name+".Refit", func() error {
		var err error
		clf, err = family.Fit(X, y, best.Config, DeriveSeed(control.Seed, 0, 0))
		return err
	})
	if err != nil {
		return nil, errors.NewFitFailure(o.name, best.Config.String(), 0, 0, err)
	}

	return &FittedModel{
		name:       o.name,
		family:     family,
		config:     best.Config,
		classifier: clf,
		schema:     ds.Schema(),
		designCols: ds.DesignNames(),
		nTrain:     ds.Len(),
		results:    res,
	}, nil
}

// namedFamily relabels a family so failures and distributions carry the
// caller's model name.
type namedFamily struct {
	model.Family
	name string
}

func (f namedFamily) Name() string { return f.name }

// better reports whether a beats b; NaN never wins.
func better(a, b float64, maximize bool) bool {
	switch {
	case math.IsNaN(a):
		return false
	case math.IsNaN(b):
		return true
	case maximize:
		return a > b
	default:
		return a < b
	}
}

func selectConfig(res *TuningResult, rule Selection) int {
	best := -1
	for i, row := range res.Rows {
		if row.Failed {
			continue
		}
		if best == -1 || better(row.Means[res.Metric], res.Rows[best].Means[res.Metric], res.Maximize) {
			best = i
		}
	}
	if rule != SelectOneSE {
		return best
	}

	bestMean := res.Rows[best].Means[res.Metric]
	se := res.Distributions[best].StdErr(res.Metric)
	if math.IsNaN(bestMean) || math.IsNaN(se) {
		return best
	}
	for i, row := range res.Rows {
		if row.Failed {
			continue
		}
		m := row.Means[res.Metric]
		if math.IsNaN(m) {
			continue
		}
		if (res.Maximize && m >= bestMean-se) || (!res.Maximize && m <= bestMean+se) {
			return i
		}
	}
	return best
}
