package linear_model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// TestLogisticRegression_FitPredict_Binary tests binary classification
func TestLogisticRegression_FitPredict_Binary(t *testing.T) {
	// Class 0: points around (1, 1)
	// Class 1: points around (3, 3)
	X := mat.NewDense(6, 2, []float64{
		0.5, 0.5,
		1.0, 1.5,
		1.5, 1.0,
		3.0, 2.5,
		2.5, 3.0,
		3.5, 3.5,
	})
	y := []int{0, 0, 0, 1, 1, 1}

	lr := NewLogisticRegression(WithLRLambda(0.01))
	require.NoError(t, lr.Fit(X, y))
	assert.True(t, lr.IsFitted())

	probs, err := lr.PredictProba(X)
	require.NoError(t, err)
	for i, p := range probs {
		assert.Equal(t, y[i] == 1, p >= 0.5, "sample %d: p=%v", i, p)
	}

	XTest := mat.NewDense(2, 2, []float64{
		1.0, 1.0, // Should be class 0
		3.0, 3.0, // Should be class 1
	})
	probs, err = lr.PredictProba(XTest)
	require.NoError(t, err)
	assert.Less(t, probs[0], 0.5)
	assert.Greater(t, probs[1], 0.5)
}

// TestLogisticRegression_MatchesKnownFit checks the unpenalised MLE on
// overlapping data, where the optimum is finite and the score equations hold.
func TestLogisticRegression_MatchesKnownFit(t *testing.T) {
	X := mat.NewDense(8, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := []int{0, 0, 1, 0, 1, 0, 1, 1}

	lr := NewLogisticRegression()
	require.NoError(t, lr.Fit(X, y))

	probs, err := lr.PredictProba(X)
	require.NoError(t, err)
	// 最尤推定では Σ(y−μ) = 0 と Σ(y−μ)x = 0
	var s0, s1 float64
	for i, p := range probs {
		s0 += float64(y[i]) - p
		s1 += (float64(y[i]) - p) * X.At(i, 0)
	}
	assert.InDelta(t, 0, s0, 1e-5)
	assert.InDelta(t, 0, s1, 1e-5)
	assert.Less(t, lr.NIter(), 20)
}

func TestLogisticRegression_Regularization(t *testing.T) {
	X := mat.NewDense(10, 5, []float64{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
		0, 0, 0, 0, 1,
		1, 1, 0, 0, 0,
		0, 1, 1, 0, 0,
		0, 0, 1, 1, 0,
		0, 0, 0, 1, 1,
		1, 0, 0, 0, 1,
	})
	y := []int{0, 0, 0, 1, 1, 0, 0, 1, 1, 1}

	lrStrong := NewLogisticRegression(WithLRLambda(1))
	require.NoError(t, lrStrong.Fit(X, y))
	lrWeak := NewLogisticRegression(WithLRLambda(0.001))
	require.NoError(t, lrWeak.Fit(X, y))

	norm := func(w []float64) float64 {
		s := 0.0
		for _, v := range w {
			s += v * v
		}
		return math.Sqrt(s)
	}
	assert.Less(t, norm(lrStrong.Coef()), norm(lrWeak.Coef()),
		"strong regularization should produce smaller weights")
}

func TestLogisticRegression_NotFitted(t *testing.T) {
	lr := NewLogisticRegression()
	X := mat.NewDense(2, 2, []float64{
		1, 2,
		3, 4,
	})

	_, err := lr.PredictProba(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf), "Expected error when predicting probabilities without fitting")
}

func TestLogisticRegression_InvalidInput(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	assert.Error(t, NewLogisticRegression().Fit(X, []int{0, 1}))
	assert.Error(t, NewLogisticRegression(WithLRLambda(-1)).Fit(X, []int{0, 1, 0}))
}

func TestFamily(t *testing.T) {
	f, err := model.Lookup("glmnet")
	require.NoError(t, err)

	g := f.DefaultGrid(nil, nil, 3, 0)
	ax, ok := g.Axis(ParamLambda)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0.1, 0.01, 0.001}, ax.Values, 1e-15)

	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	clf, err := f.Fit(X, []int{0, 0, 1, 0, 1, 1}, g.Configs()[0], 0)
	require.NoError(t, err)
	probs, err := clf.PredictProba(X)
	require.NoError(t, err)
	assert.Less(t, probs[0], probs[5])
}
