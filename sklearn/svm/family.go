package svm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
	"github.com/YuminosukeSato/tuneflow/preprocessing"
)

// Parameter names.
const (
	ParamSigma = "sigma"
	ParamC     = "C"
)

// RadialFamily is "svmRadial": RBF kernel, tuned over sigma and C.
type RadialFamily struct{}

// LinearFamily is "svmLinear": linear kernel, tuned over C.
type LinearFamily struct{}

func init() {
	model.Register(RadialFamily{})
	model.Register(LinearFamily{})
}

func (RadialFamily) Name() string     { return "svmRadial" }
func (RadialFamily) Params() []string { return []string{ParamSigma, ParamC} }

// DefaultGrid fixes sigma at the mean of the low and high EstimateSigma
// values on standardised X and tunes C over 2^(k-3), k = 1..L.
func (RadialFamily) DefaultGrid(X mat.Matrix, _ []int, tuneLength int, seed uint64) *model.Grid {
	sigma := 1.0
	if X != nil {
		if Z, err := preprocessing.NewStandardScalerDefault().FitTransform(X); err == nil {
			est := EstimateSigma(Z, seed)
			sigma = (est[0] + est[2]) / 2
		}
	}
	return model.NewGrid().
		Add(ParamSigma, sigma).
		Add(ParamC, costs(tuneLength)...)
}

// Fit implements model.Family.
func (f RadialFamily) Fit(X mat.Matrix, y []int, cfg model.Config, _ uint64) (model.Classifier, error) {
	if err := model.ValidateConfig(f, cfg); err != nil {
		return nil, err
	}
	sigma := cfg.Float(ParamSigma, math.NaN())
	if math.IsNaN(sigma) {
		Z, err := preprocessing.NewStandardScalerDefault().FitTransform(X)
		if err != nil {
			return nil, err
		}
		est := EstimateSigma(Z, 0)
		sigma = (est[0] + est[2]) / 2
	}
	if !(sigma > 0) {
		return nil, errors.NewValidationError(ParamSigma, "must be positive", sigma)
	}
	return FitSVC(X, y, RBFKernel{Sigma: sigma}, cfg.Float(ParamC, 1))
}

func (LinearFamily) Name() string     { return "svmLinear" }
func (LinearFamily) Params() []string { return []string{ParamC} }

// DefaultGrid is C = 1 for tuneLength 1, otherwise 2^(k-3), k = 1..L.
func (LinearFamily) DefaultGrid(_ mat.Matrix, _ []int, tuneLength int, _ uint64) *model.Grid {
	if tuneLength <= 1 {
		return model.NewGrid().Add(ParamC, 1)
	}
	return model.NewGrid().Add(ParamC, costs(tuneLength)...)
}

// Fit implements model.Family.
func (f LinearFamily) Fit(X mat.Matrix, y []int, cfg model.Config, _ uint64) (model.Classifier, error) {
	if err := model.ValidateConfig(f, cfg); err != nil {
		return nil, err
	}
	return FitSVC(X, y, LinearKernel{}, cfg.Float(ParamC, 1))
}

func costs(tuneLength int) []float64 {
	tuneLength = max(tuneLength, 1)
	out := make([]float64, tuneLength)
	for k := range out {
		out[k] = math.Pow(2, float64(k+1-3))
	}
	return out
}
