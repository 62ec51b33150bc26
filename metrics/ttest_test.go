package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairedTTest(t *testing.T) {
	// R: t.test(a, b, paired = TRUE)
	a := []float64{0.82, 0.85, 0.79, 0.88, 0.84, 0.81}
	b := []float64{0.80, 0.83, 0.80, 0.84, 0.81, 0.80}

	res, err := PairedTTest(a, b, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 6, res.N)
	assert.InDelta(t, 0.018333, res.MeanDiff, 1e-6)
	assert.InDelta(t, 5.0, res.DF, 1e-12)
	assert.InDelta(t, 2.6073, res.T, 1e-3)
	assert.InDelta(t, 0.0478, res.PValue, 1e-3)
	assert.Less(t, res.CILower, res.MeanDiff)
	assert.Greater(t, res.CIUpper, res.MeanDiff)
	assert.True(t, res.Significant(0.05))
}

func TestPairedTTestIdentical(t *testing.T) {
	a := []float64{0.7, 0.8, 0.9}
	res, err := PairedTTest(a, a, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.MeanDiff)
	assert.Equal(t, 1.0, res.PValue)
	assert.False(t, res.Significant(0.05))
}

func TestPairedTTestConstantShift(t *testing.T) {
	a := []float64{0.7, 0.8, 0.9}
	b := []float64{0.6, 0.7, 0.8}
	res, err := PairedTTest(a, b, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, res.MeanDiff, 1e-12)
	assert.Equal(t, 0.0, res.PValue)
	assert.True(t, math.IsInf(res.T, 1))
}

func TestPairedTTestNaNAndErrors(t *testing.T) {
	res, err := PairedTTest([]float64{1, math.NaN(), 3, 4}, []float64{0, 1, 2, 2}, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 3, res.N)

	_, err = PairedTTest([]float64{1}, []float64{1}, 0.95)
	assert.Error(t, err)
	_, err = PairedTTest([]float64{1, 2}, []float64{1}, 0.95)
	assert.Error(t, err)
	_, err = PairedTTest([]float64{1, 2}, []float64{1, 3}, 1)
	assert.Error(t, err)
}
