// Package svm implements the "svmRadial" and "svmLinear" model families: a
// C-support vector classifier solved by SMO, with Platt-scaled
// probabilities.
package svm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
	"github.com/YuminosukeSato/tuneflow/preprocessing"
)

// Solver defaults.
const (
	DefaultTolerance = 1e-3
	minIterationCap  = 10_000_000
)

// SVC is a fitted binary C-support vector classifier. It is immutable.
type SVC struct {
	kernel  Kernel
	C       float64
	scaler  *preprocessing.StandardScaler
	support [][]float64 // standardised support vectors
	coef    []float64   // α_i·y_i of each support vector
	rho     float64
	platt   plattScaling

	nFeatures  int
	iterations int
	converged  bool
}

// FitSVC standardises X, solves the dual problem and fits Platt scaling on
// the training decision values. y holds 1 for the positive class, 0 else.
//
// Reaching the iteration cap is not an error: a ConvergenceWarning is
// emitted and the current solution kept.
func FitSVC(X mat.Matrix, y []int, kernel Kernel, C float64) (*SVC, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("SVC.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(y) != r {
		return nil, errors.NewDimensionError("SVC.Fit", r, len(y), 0)
	}
	if !(C > 0) || math.IsInf(C, 0) {
		return nil, errors.NewValidationError(ParamC, "must be positive", C)
	}

	signs := make([]float64, r)
	var pos int
	for i, v := range y {
		signs[i] = -1
		if v == 1 {
			signs[i] = 1
			pos++
		}
	}
	if pos == 0 {
		return nil, errors.NewDegenerateLabelsError("SVC.Fit", "negative")
	}
	if pos == r {
		return nil, errors.NewDegenerateLabelsError("SVC.Fit", "positive")
	}

	scaler := preprocessing.NewStandardScalerDefault()
	Z, err := scaler.FitTransform(X)
	if err != nil {
		return nil, err
	}
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = Z.RawRowView(i)
	}

	K := gramMatrix(kernel, rows)
	maxIter := max(minIterationCap, 100*r)
	sol := solveSMO(K, signs, C, DefaultTolerance, maxIter)
	if !sol.converged {
		errors.Warn(errors.NewConvergenceWarning("SVC", sol.iterations,
			fmt.Sprintf("SMO did not reach tolerance %g; using the current solution", DefaultTolerance)))
	}

	m := &SVC{
		kernel:     kernel,
		C:          C,
		scaler:     scaler,
		rho:        sol.rho,
		nFeatures:  c,
		iterations: sol.iterations,
		converged:  sol.converged,
	}
	for i, a := range sol.alpha {
		if a > 0 {
			m.support = append(m.support, append([]float64(nil), rows[i]...))
			m.coef = append(m.coef, a*signs[i])
		}
	}

	// 学習データの決定値で Platt スケーリングを当てる
	dec := make([]float64, r)
	for i := range rows {
		dec[i] = m.decision(rows[i])
	}
	if err := errors.CheckNumericalStability("SVC.Fit", dec, sol.iterations); err != nil {
		return nil, err
	}
	m.platt, _ = fitPlatt(dec, signs)
	return m, nil
}

func (m *SVC) decision(z []float64) float64 {
	f := -m.rho
	for k, sv := range m.support {
		f += m.coef[k] * m.kernel.Compute(sv, z)
	}
	return f
}

// DecisionFunction returns the signed margin of each row; positive values
// favour the positive class.
func (m *SVC) DecisionFunction(X mat.Matrix) ([]float64, error) {
	Z, err := m.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	r, _ := Z.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = m.decision(Z.RawRowView(i))
	}
	return out, nil
}

// PredictProba returns the Platt-scaled probability of the positive class.
func (m *SVC) PredictProba(X mat.Matrix) ([]float64, error) {
	dec, err := m.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	for i, f := range dec {
		dec[i] = m.platt.prob(f)
	}
	return dec, nil
}

// NumSupport returns the number of support vectors.
func (m *SVC) NumSupport() int { return len(m.support) }

// Converged reports whether SMO met the tolerance before the iteration cap.
func (m *SVC) Converged() bool { return m.converged }

// Iterations returns the number of SMO iterations.
func (m *SVC) Iterations() int { return m.iterations }

func (m *SVC) String() string {
	return fmt.Sprintf("SVC(kernel=%s, C=%g, n_support=%d)", m.kernel, m.C, len(m.support))
}
