package model_selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func distribution(name string, acc ...float64) *ResampleDistribution {
	d := &ResampleDistribution{Model: name, Metrics: []string{MetricAccuracy, MetricKappa}}
	for i, a := range acc {
		d.Resamples = append(d.Resamples, ResampleValue{
			Repeat:  i/5 + 1,
			Fold:    i%5 + 1,
			Metrics: map[string]float64{MetricAccuracy: a, MetricKappa: 2*a - 1},
		})
	}
	return d
}

func TestCompareIdentical(t *testing.T) {
	a := distribution("a", 0.8, 0.82, 0.79, 0.85, 0.81)
	b := distribution("b", 0.8, 0.82, 0.79, 0.85, 0.81)
	cmp, err := CompareResamples(a, b)
	require.NoError(t, err)
	require.Len(t, cmp.Differences, 2)

	d, ok := cmp.Difference(MetricAccuracy)
	require.True(t, ok)
	assert.Equal(t, 0.0, d.MeanDiff)
	assert.Equal(t, 1.0, d.PValue)
	assert.False(t, d.Significant(0.05))
}

func TestCompareDifferent(t *testing.T) {
	a := distribution("a", 0.90, 0.92, 0.91, 0.93, 0.90)
	b := distribution("b", 0.80, 0.81, 0.83, 0.80, 0.82)
	cmp, err := CompareResamples(a, b, WithConfidence(0.9))
	require.NoError(t, err)
	d, _ := cmp.Difference(MetricAccuracy)
	assert.InDelta(t, 0.1, d.MeanDiff, 1e-12)
	assert.True(t, d.Significant(0.05))
	assert.Less(t, d.CILower, d.MeanDiff)
	assert.Equal(t, 0.9, d.Confidence)
}

func TestCompareRequiresSameResamples(t *testing.T) {
	a := distribution("a", 0.8, 0.82, 0.79)
	b := distribution("b", 0.8, 0.82, 0.79, 0.85)
	_, err := CompareResamples(a, b)
	assert.Error(t, err)
}

func TestCompareAllBonferroni(t *testing.T) {
	dists := []*ResampleDistribution{
		distribution("a", 0.90, 0.92, 0.91, 0.93, 0.90),
		distribution("b", 0.80, 0.81, 0.83, 0.80, 0.82),
		distribution("c", 0.85, 0.86, 0.84, 0.88, 0.85),
	}
	out, err := CompareAll(dists)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].A)
	assert.Equal(t, "b", out[0].B)
	assert.Equal(t, "b", out[2].A)
	for _, c := range out {
		for _, d := range c.Differences {
			assert.InDelta(t, math.Min(1, 3*d.PValue), d.AdjustedPValue, 1e-15)
		}
	}

	_, err = CompareAll(dists[:1])
	assert.Error(t, err)
}
