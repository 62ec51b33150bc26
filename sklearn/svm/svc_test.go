package svm

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

func blobs(n int, gap float64, seed uint64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewPCG(seed, 2))
	X := mat.NewDense(n, 2, nil)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		y[i] = i % 2
		c := gap * (float64(y[i]) - 0.5)
		X.Set(i, 0, c+0.5*rng.NormFloat64())
		X.Set(i, 1, c+0.5*rng.NormFloat64())
	}
	return X, y
}

// ring is a problem a linear kernel cannot solve.
func ring(n int, seed uint64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewPCG(seed, 3))
	X := mat.NewDense(n, 2, nil)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		y[i] = i % 2
		radius := 1.0
		if y[i] == 1 {
			radius = 3
		}
		theta := rng.Float64() * 2 * math.Pi
		X.Set(i, 0, radius*math.Cos(theta)+0.1*rng.NormFloat64())
		X.Set(i, 1, radius*math.Sin(theta)+0.1*rng.NormFloat64())
	}
	return X, y
}

func accuracy(t *testing.T, clf model.Classifier, X mat.Matrix, y []int) float64 {
	t.Helper()
	probs, err := clf.PredictProba(X)
	require.NoError(t, err)
	correct := 0
	for i, p := range probs {
		require.True(t, p >= 0 && p <= 1, "probability out of range: %v", p)
		if (p >= 0.5) == (y[i] == 1) {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

func TestSVCLinear(t *testing.T) {
	X, y := blobs(100, 4, 1)
	m, err := FitSVC(X, y, LinearKernel{}, 1)
	require.NoError(t, err)
	assert.True(t, m.Converged())
	assert.Greater(t, m.NumSupport(), 0)
	assert.GreaterOrEqual(t, accuracy(t, m, X, y), 0.97)

	// 決定値の符号と確率の向きが一致する
	dec, err := m.DecisionFunction(X)
	require.NoError(t, err)
	probs, _ := m.PredictProba(X)
	for i := range dec {
		if dec[i] > 1 {
			assert.Greater(t, probs[i], 0.5)
		}
		if dec[i] < -1 {
			assert.Less(t, probs[i], 0.5)
		}
	}
}

func TestSVCRadialSolvesRing(t *testing.T) {
	X, y := ring(120, 4)
	radial, err := FitSVC(X, y, RBFKernel{Sigma: 1}, 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, accuracy(t, radial, X, y), 0.95)

	linear, err := FitSVC(X, y, LinearKernel{}, 1)
	require.NoError(t, err)
	assert.Less(t, accuracy(t, linear, X, y), 0.8)
}

func TestSVCDualFeasible(t *testing.T) {
	X, y := blobs(60, 1, 7)
	m, err := FitSVC(X, y, RBFKernel{Sigma: 0.5}, 0.5)
	require.NoError(t, err)
	sum := 0.0
	for _, c := range m.coef {
		assert.LessOrEqual(t, math.Abs(c), 0.5+1e-9)
		sum += c
	}
	assert.InDelta(t, 0, sum, 1e-8, "sum of alpha_i*y_i must be zero")
}

func TestSVCErrors(t *testing.T) {
	X, y := blobs(10, 1, 1)
	_, err := FitSVC(X, y, LinearKernel{}, 0)
	assert.Error(t, err)

	_, err = FitSVC(X, make([]int, 10), LinearKernel{}, 1)
	var de *errors.DegenerateLabelsError
	assert.True(t, errors.As(err, &de))

	m, err := FitSVC(X, y, LinearKernel{}, 1)
	require.NoError(t, err)
	_, err = m.PredictProba(mat.NewDense(1, 5, nil))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestPlatt(t *testing.T) {
	dec := []float64{-3, -2, -1, -0.5, 0.5, 1, 2, 3}
	labels := []float64{-1, -1, -1, 1, -1, 1, 1, 1}
	p, _ := fitPlatt(dec, labels)
	assert.Less(t, p.A, 0.0, "larger margins must mean higher probability")
	assert.Less(t, p.prob(-3), p.prob(3))
	assert.InDelta(t, 1, p.prob(100), 1e-6)
	assert.InDelta(t, 0, p.prob(-100), 1e-6)
}

func TestEstimateSigma(t *testing.T) {
	X, _ := blobs(200, 2, 5)
	est := EstimateSigma(X, 1)
	assert.LessOrEqual(t, est[0], est[1])
	assert.LessOrEqual(t, est[1], est[2])
	assert.Equal(t, est, EstimateSigma(X, 1))
	for _, s := range est {
		assert.Greater(t, s, 0.0)
	}
}

func TestFamilies(t *testing.T) {
	X, y := blobs(40, 3, 2)

	radial, err := model.Lookup("svmRadial")
	require.NoError(t, err)
	g := radial.DefaultGrid(X, y, 3, 1)
	require.Equal(t, 3, g.Len())
	cs, _ := g.Axis(ParamC)
	assert.Equal(t, []float64{0.25, 0.5, 1}, cs.Values)
	sigma, _ := g.Axis(ParamSigma)
	require.Len(t, sigma.Values, 1)
	assert.Greater(t, sigma.Values[0], 0.0)

	clf, err := radial.Fit(X, y, g.Configs()[2], 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, accuracy(t, clf, X, y), 0.9)

	linear, err := model.Lookup("svmLinear")
	require.NoError(t, err)
	assert.Equal(t, []model.Config{{{Name: ParamC, Value: 1}}}, linear.DefaultGrid(X, y, 1, 0).Configs())
	_, err = linear.Fit(X, y, model.Config{{Name: ParamSigma, Value: 1}}, 1)
	assert.Error(t, err)
}
