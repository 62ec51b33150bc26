package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 3, []float64{
		1, 10, 5,
		2, 20, 5,
		3, 30, 5,
		4, 40, 5,
	})

	s := NewStandardScalerDefault()
	Z, err := s.FitTransform(X)
	require.NoError(t, err)

	col := make([]float64, 4)
	for j := 0; j < 2; j++ {
		mat.Col(col, j, Z)
		mean, std := stat.MeanStdDev(col, nil)
		assert.InDelta(t, 0, mean, 1e-12, "column %d mean", j)
		assert.InDelta(t, 1, std, 1e-12, "column %d sd", j)
	}

	// 定数列は中心化のみ
	assert.Equal(t, 1.0, s.Scale[2])
	mat.Col(col, 2, Z)
	assert.Equal(t, []float64{0, 0, 0, 0}, col)
}

func TestStandardScalerWithoutMean(t *testing.T) {
	s := NewStandardScaler(false, false)
	X := mat.NewDense(2, 1, []float64{3, 5})
	Z, err := s.FitTransform(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(X, Z))
}

func TestStandardScalerNotFitted(t *testing.T) {
	s := NewStandardScalerDefault()
	_, err := s.Transform(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	require.NoError(t, s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = s.Transform(mat.NewDense(1, 3, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
	assert.Contains(t, s.String(), "n_features=2")
}

func TestStandardScalerRejectsNaN(t *testing.T) {
	s := NewStandardScalerDefault()
	err := s.Fit(mat.NewDense(2, 1, []float64{1, math.NaN()}))
	assert.Error(t, err)
}
