package svm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// tau replaces a non-positive curvature in the two-variable update.
const tau = 1e-12

// smoResult is the dual solution of a C-SVC problem.
type smoResult struct {
	alpha      []float64
	rho        float64
	iterations int
	converged  bool
}

// solveSMO solves
//
//	min ½ αᵀQα − eᵀα  s.t. 0 ≤ α ≤ C, yᵀα = 0,  Q_ij = y_i y_j K_ij
//
// with the maximal violating pair working set (Keerthi et al.; WSS1 in
// Fan, Chen and Lin 2005). y holds ±1.
func solveSMO(K *mat.SymDense, y []float64, C, tol float64, maxIter int) smoResult {
	n := len(y)
	alpha := make([]float64, n)
	grad := make([]float64, n)
	for i := range grad {
		grad[i] = -1
	}
	q := func(i, j int) float64 { return y[i] * y[j] * K.At(i, j) }

	inUp := func(t int) bool {
		return (y[t] > 0 && alpha[t] < C) || (y[t] < 0 && alpha[t] > 0)
	}
	inLow := func(t int) bool {
		return (y[t] > 0 && alpha[t] > 0) || (y[t] < 0 && alpha[t] < C)
	}

	res := smoResult{alpha: alpha}
	for iter := 0; iter < maxIter; iter++ {
		i, j := -1, -1
		gmax, gmin := math.Inf(-1), math.Inf(1)
		for t := 0; t < n; t++ {
			v := -y[t] * grad[t]
			if inUp(t) && v > gmax {
				gmax, i = v, t
			}
			if inLow(t) && v < gmin {
				gmin, j = v, t
			}
		}
		if i == -1 || j == -1 || gmax-gmin < tol {
			res.iterations = iter
			res.converged = true
			break
		}

		oldI, oldJ := alpha[i], alpha[j]
		qii, qjj, qij := q(i, i), q(j, j), q(i, j)
		if y[i] != y[j] {
			quad := qii + qjj + 2*qij
			if quad <= 0 {
				quad = tau
			}
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = -diff
			}
			if diff > 0 {
				if alpha[i] > C {
					alpha[i] = C
					alpha[j] = C - diff
				}
			} else if alpha[j] > C {
				alpha[j] = C
				alpha[i] = C + diff
			}
		} else {
			quad := qii + qjj - 2*qij
			if quad <= 0 {
				quad = tau
			}
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > C {
				if alpha[i] > C {
					alpha[i] = C
					alpha[j] = sum - C
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > C {
				if alpha[j] > C {
					alpha[j] = C
					alpha[i] = sum - C
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}
		}

		dI, dJ := alpha[i]-oldI, alpha[j]-oldJ
		if dI == 0 && dJ == 0 {
			res.iterations = iter + 1
			res.converged = true
			break
		}
		for t := 0; t < n; t++ {
			grad[t] += q(t, i)*dI + q(t, j)*dJ
		}
		res.iterations = iter + 1
	}

	res.rho = computeRho(alpha, grad, y, C)
	return res
}

// computeRho is the offset of the decision function Σ α_i y_i K(x_i, x) − ρ.
// Free support vectors give ρ as the mean of y_i·G_i; without any, the
// midpoint of the feasible interval is used.
func computeRho(alpha, grad, y []float64, C float64) float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	sumFree, nFree := 0.0, 0
	for i := range alpha {
		yG := y[i] * grad[i]
		switch {
		case alpha[i] >= C:
			if y[i] < 0 {
				ub = math.Min(ub, yG)
			} else {
				lb = math.Max(lb, yG)
			}
		case alpha[i] <= 0:
			if y[i] > 0 {
				ub = math.Min(ub, yG)
			} else {
				lb = math.Max(lb, yG)
			}
		default:
			nFree++
			sumFree += yG
		}
	}
	if nFree > 0 {
		return sumFree / float64(nFree)
	}
	return (ub + lb) / 2
}
