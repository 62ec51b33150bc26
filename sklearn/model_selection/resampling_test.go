package model_selection

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

func TestEvaluateRunsEveryCycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	ds, err := separable(30, 45)
	require.NoError(t, err)
	control := NewControl(WithNumber(5), WithRepeats(5), WithSeed(3), WithWorkers(4), WithSummary(FullSummary))
	rs, err := Resamples(ds.Codes(), control)
	require.NoError(t, err)

	fam := newSignFamily()
	dist, err := Evaluate(context.Background(), fam, ds.Design(), ds.Codes(), model.Config{}, rs, control)
	require.NoError(t, err)

	assert.EqualValues(t, 25, fam.calls.Load())
	require.Len(t, dist.Resamples, 25)
	assert.Equal(t, "sign", dist.Model)
	for i, v := range dist.Resamples {
		assert.Equal(t, rs[i].Repeat, v.Repeat)
		assert.Equal(t, rs[i].Fold, v.Fold)
		assert.Equal(t, 15, v.HoldOut)
		assert.Equal(t, 1.0, v.Metrics[MetricAccuracy])
		assert.Equal(t, 1.0, v.Metrics[MetricROC])
	}
	assert.Equal(t, 1.0, dist.Mean(MetricKappa))
	assert.InDelta(t, -math.Log(0.9), dist.Mean(MetricLogLoss), 1e-12)
	assert.Equal(t, 0.0, dist.StdDev(MetricAccuracy))
}

func TestEvaluateFailureNamesCycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	ds, err := separable(20, 20)
	require.NoError(t, err)
	control := NewControl(WithNumber(4), WithWorkers(1))
	rs, err := Resamples(ds.Codes(), control)
	require.NoError(t, err)

	fam := newSignFamily()
	fam.failOnCall = 3
	_, err = Evaluate(context.Background(), fam, ds.Design(), ds.Codes(), model.Config{}, rs, control)
	require.Error(t, err)

	var ff *errors.FitFailure
	require.True(t, errors.As(err, &ff))
	assert.Equal(t, 1, ff.Repeat)
	assert.Equal(t, 3, ff.Fold)
	assert.Equal(t, "sign", ff.Model)
}

func TestEvaluateCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ds, err := separable(20, 20)
	require.NoError(t, err)
	control := NewControl(WithNumber(4))
	rs, err := Resamples(ds.Codes(), control)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Evaluate(ctx, newSignFamily(), ds.Design(), ds.Codes(), model.Config{}, rs, control)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDistributionAggregates(t *testing.T) {
	dist := &ResampleDistribution{Metrics: []string{MetricAccuracy}}
	for i, v := range []float64{1, 2, math.NaN(), 3, 4, 5} {
		dist.Resamples = append(dist.Resamples, ResampleValue{Repeat: 1, Fold: i + 1, Metrics: map[string]float64{MetricAccuracy: v}})
	}

	assert.Equal(t, 3.0, dist.Mean(MetricAccuracy))
	assert.InDelta(t, math.Sqrt(2.5), dist.StdDev(MetricAccuracy), 1e-12)
	assert.InDelta(t, math.Sqrt(2.5)/math.Sqrt(5), dist.StdErr(MetricAccuracy), 1e-12)

	s := dist.Summary(MetricAccuracy)
	assert.Equal(t, 1, s.NAs)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 3.0, s.Mean)
	assert.True(t, s.Q1 >= s.Min && s.Q1 <= s.Median)
	assert.True(t, s.Q3 >= s.Median && s.Q3 <= s.Max)

	assert.True(t, math.IsNaN(dist.Mean(MetricKappa)), "absent metric")
	assert.Equal(t, 6, dist.Summary(MetricKappa).NAs)
	assert.Len(t, dist.Keys(), 6)
}

func TestDeriveSeed(t *testing.T) {
	seen := make(map[uint64]bool)
	for rep := 0; rep <= 3; rep++ {
		for fold := 0; fold <= 10; fold++ {
			s := DeriveSeed(42, rep, fold)
			assert.False(t, seen[s], "seed collision at %d/%d", rep, fold)
			seen[s] = true
		}
	}
	assert.Equal(t, DeriveSeed(1, 2, 3), DeriveSeed(1, 2, 3))
}

func TestSummarizeUndefinedMetrics(t *testing.T) {
	// 片側クラスのみのホールドアウト
	m := summarize(TwoClassSummary, []int{0, 0, 0}, []float64{0.2, 0.7, 0.1})
	assert.True(t, math.IsNaN(m[MetricROC]))
	assert.True(t, math.IsNaN(m[MetricSens]))
	assert.InDelta(t, 2.0/3.0, m[MetricSpec], 1e-12)
}
