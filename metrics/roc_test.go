package metrics

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

func TestROCCurve(t *testing.T) {
	ref := []string{"R", "R", "M", "M"}
	probs := []float64{0.1, 0.4, 0.35, 0.8}

	roc, err := ROCCurve(ref, probs, "M")
	require.NoError(t, err)
	assert.Equal(t, "M", roc.Positive)
	assert.InDelta(t, 0.75, roc.AUC, 1e-12)
	assert.Equal(t, 2, roc.NPositive)
	assert.Equal(t, 2, roc.NNegative)

	// 閾値は +Inf から降順、点は (0,0) から (1,1) へ単調
	require.Len(t, roc.TPR, 5)
	assert.True(t, math.IsInf(roc.Thresholds[0], 1))
	assert.Equal(t, 0.0, roc.TPR[0])
	assert.Equal(t, 0.0, roc.FPR[0])
	assert.Equal(t, 1.0, roc.TPR[len(roc.TPR)-1])
	assert.Equal(t, 1.0, roc.FPR[len(roc.FPR)-1])
	for i := 1; i < len(roc.TPR); i++ {
		assert.GreaterOrEqual(t, roc.TPR[i], roc.TPR[i-1])
		assert.GreaterOrEqual(t, roc.FPR[i], roc.FPR[i-1])
		assert.Less(t, roc.Thresholds[i], roc.Thresholds[i-1])
	}

	best := roc.BestThreshold()
	assert.Equal(t, 0.8, best.Value)
	assert.Equal(t, 0.5, best.Sensitivity)
	assert.Equal(t, 1.0, best.Specificity)
	assert.Equal(t, []float64{1, 1, 0.5, 0.5, 0}, roc.Specificities())
}

func randomScores(n int, shift float64, seed uint64) ([]int, []float64) {
	rng := rand.New(rand.NewPCG(seed, 9))
	y := make([]int, n)
	s := make([]float64, n)
	for i := range y {
		y[i] = i % 2
		s[i] = rng.NormFloat64() + shift*float64(y[i])
	}
	return y, s
}

func TestROCPropertiesRandom(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		y, s := randomScores(50, 1, seed)
		roc, err := ROCFromCodes(y, s)
		require.NoError(t, err)
		assert.True(t, roc.AUC >= 0 && roc.AUC <= 1)
		assert.LessOrEqual(t, roc.CILower, roc.AUC)
		assert.GreaterOrEqual(t, roc.CIUpper, roc.AUC)

		var pos, neg []float64
		for i, v := range y {
			if v == 1 {
				pos = append(pos, s[i])
			} else {
				neg = append(neg, s[i])
			}
		}
		assert.InDelta(t, mannWhitneyAUC(pos, neg), roc.AUC, 1e-12, "trapezoid AUC equals the Mann-Whitney statistic")
	}
}

func TestROCTiesAndReversal(t *testing.T) {
	roc, err := ROCFromCodes([]int{0, 1, 0, 1}, []float64{0.5, 0.5, 0.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, roc.AUC, 1e-12)

	roc, err = ROCFromCodes([]int{0, 0, 1, 1}, []float64{0.9, 0.8, 0.2, 0.1})
	require.NoError(t, err)
	assert.InDelta(t, 0, roc.AUC, 1e-12)
	assert.Equal(t, 0.0, roc.CILower)
}

func TestROCConfidenceIntervals(t *testing.T) {
	y, s := randomScores(200, 1, 42)

	delong, err := ROCFromCodes(y, s)
	require.NoError(t, err)
	assert.Equal(t, CIDeLong, delong.CIMethod)

	boot, err := ROCFromCodes(y, s, WithBootstrapCI(500, 1))
	require.NoError(t, err)
	assert.Equal(t, CIBootstrap, boot.CIMethod)
	assert.InDelta(t, delong.CILower, boot.CILower, 0.03)
	assert.InDelta(t, delong.CIUpper, boot.CIUpper, 0.03)

	narrow, err := ROCFromCodes(y, s, WithConfidenceLevel(0.5))
	require.NoError(t, err)
	assert.Less(t, narrow.CIUpper-narrow.CILower, delong.CIUpper-delong.CILower)

	none, err := ROCFromCodes(y, s, WithoutCI())
	require.NoError(t, err)
	assert.True(t, math.IsNaN(none.CILower))
}

func TestROCDegenerate(t *testing.T) {
	_, err := ROCCurve([]string{"M", "M"}, []float64{0.2, 0.3}, "M")
	var de *errors.DegenerateLabelsError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "M", de.Class)

	_, err = ROCFromCodes([]int{0, 0}, []float64{0.2, 0.3})
	assert.True(t, errors.As(err, &de))

	_, err = ROCFromCodes([]int{0, 1}, []float64{0.2})
	assert.Error(t, err)
}
