// Package model_selection runs resampling-based evaluation and grid-search
// tuning of model families, predicts with the selected model and compares
// resampling distributions of competing models.
package model_selection

import (
	"slices"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// Method is a resampling scheme.
type Method string

// Resampling methods.
const (
	MethodCV         Method = "cv"
	MethodRepeatedCV Method = "repeatedcv"
	MethodBoot       Method = "boot"
)

// Summary selects which metrics every hold-out evaluation computes.
type Summary string

// Summary functions.
const (
	// DefaultSummary computes Accuracy and Kappa.
	DefaultSummary Summary = "default"
	// TwoClassSummary computes ROC (AUC), Sens and Spec.
	TwoClassSummary Summary = "twoClass"
	// FullSummary computes all six metrics including LogLoss.
	FullSummary Summary = "full"
)

// Metric names.
const (
	MetricAccuracy = "Accuracy"
	MetricKappa    = "Kappa"
	MetricROC      = "ROC"
	MetricSens     = "Sens"
	MetricSpec     = "Spec"
	MetricLogLoss  = "LogLoss"
)

// Metrics returns the metric names the summary computes, in order.
func (s Summary) Metrics() []string {
	switch s {
	case TwoClassSummary:
		return []string{MetricROC, MetricSens, MetricSpec}
	case FullSummary:
		return []string{MetricAccuracy, MetricKappa, MetricROC, MetricSens, MetricSpec, MetricLogLoss}
	default:
		return []string{MetricAccuracy, MetricKappa}
	}
}

// DefaultMetric is the metric selection optimises when none is given.
func (s Summary) DefaultMetric() string {
	if s == TwoClassSummary {
		return MetricROC
	}
	return MetricAccuracy
}

// Maximize reports whether larger values of metric are better.
func Maximize(metric string) bool { return metric != MetricLogLoss }

// Selection is the rule picking the winning configuration.
type Selection string

// Selection rules.
const (
	// SelectBest takes the best mean; ties go to the earliest configuration.
	SelectBest Selection = "best"
	// SelectOneSE takes the earliest configuration within one standard
	// error of the best mean.
	SelectOneSE Selection = "oneSE"
)

// Control is the resampling policy shared by every configuration and every
// model trained with it. Two models trained with equal Control values and
// the same data see identical resamples, so their distributions pair up.
type Control struct {
	Method    Method
	Number    int // folds, or bootstrap iterations
	Repeats   int // repeats of k-fold; only used by repeatedcv
	Summary   Summary
	Selection Selection
	Seed      uint64
	Workers   int // parallel fit/evaluate cycles; <= 0 uses every CPU
}

// ControlOption configures NewControl.
type ControlOption func(*Control)

// WithMethod sets the resampling method.
func WithMethod(m Method) ControlOption { return func(c *Control) { c.Method = m } }

// WithNumber sets the number of folds or bootstrap iterations.
func WithNumber(n int) ControlOption { return func(c *Control) { c.Number = n } }

// WithRepeats sets the number of repeats.
func WithRepeats(r int) ControlOption { return func(c *Control) { c.Repeats = r } }

// WithSummary sets the summary function.
func WithSummary(s Summary) ControlOption { return func(c *Control) { c.Summary = s } }

// WithSelection sets the selection rule.
func WithSelection(s Selection) ControlOption { return func(c *Control) { c.Selection = s } }

// WithSeed sets the resampling seed.
func WithSeed(seed uint64) ControlOption { return func(c *Control) { c.Seed = seed } }

// WithWorkers bounds parallel cycles.
func WithWorkers(n int) ControlOption { return func(c *Control) { c.Workers = n } }

// NewControl returns 10-fold cross-validation repeated once with the
// default summary and the best rule, modified by opts.
func NewControl(opts ...ControlOption) Control {
	c := Control{
		Method:    MethodRepeatedCV,
		Number:    10,
		Repeats:   1,
		Summary:   DefaultSummary,
		Selection: SelectBest,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Validate checks the policy.
func (c Control) Validate() error {
	switch c.Method {
	case MethodCV, MethodRepeatedCV:
		if c.Number < 2 {
			return errors.NewValidationError("number", "k-fold needs at least 2 folds", c.Number)
		}
	case MethodBoot:
		if c.Number < 1 {
			return errors.NewValidationError("number", "bootstrap needs at least 1 iteration", c.Number)
		}
	default:
		return errors.NewValidationError("method", "unknown resampling method", c.Method)
	}
	if c.Method == MethodRepeatedCV && c.Repeats < 1 {
		return errors.NewValidationError("repeats", "must be at least 1", c.Repeats)
	}
	if !slices.Contains([]Summary{DefaultSummary, TwoClassSummary, FullSummary}, c.Summary) {
		return errors.NewValidationError("summary", "unknown summary function", c.Summary)
	}
	if c.Selection != SelectBest && c.Selection != SelectOneSE {
		return errors.NewValidationError("selection", "unknown selection rule", c.Selection)
	}
	return nil
}

// EffectiveRepeats is Repeats for repeatedcv and 1 otherwise.
func (c Control) EffectiveRepeats() int {
	if c.Method == MethodRepeatedCV {
		return c.Repeats
	}
	return 1
}

// Cycles is the number of fit/evaluate cycles per configuration.
func (c Control) Cycles() int {
	if c.Method == MethodBoot {
		return c.Number
	}
	return c.Number * c.EffectiveRepeats()
}
