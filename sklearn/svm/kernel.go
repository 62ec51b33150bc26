package svm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/core/parallel"
)

// Kernel は2つの特徴ベクトルの内積を特徴空間で計算します。
type Kernel interface {
	Compute(a, b []float64) float64
	String() string
}

// RBFKernel is exp(-Sigma·||a-b||²), kernlab's rbfdot parameterisation.
type RBFKernel struct {
	Sigma float64
}

// Compute implements Kernel.
func (k RBFKernel) Compute(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return math.Exp(-k.Sigma * d)
}

func (k RBFKernel) String() string { return fmt.Sprintf("rbf(sigma=%g)", k.Sigma) }

// LinearKernel is the plain dot product.
type LinearKernel struct{}

// Compute implements Kernel.
func (LinearKernel) Compute(a, b []float64) float64 { return floats.Dot(a, b) }

func (LinearKernel) String() string { return "linear" }

// gramMatrix は学習データのカーネル行列を行ごとに並列で計算する
func gramMatrix(k Kernel, rows [][]float64) *mat.SymDense {
	n := len(rows)
	K := mat.NewSymDense(n, nil)
	parallel.ParallelizeWithThreshold(n, 64, func(start, end int) {
		for i := start; i < end; i++ {
			for j := i; j < n; j++ {
				K.SetSym(i, j, k.Compute(rows[i], rows[j]))
			}
		}
	})
	return K
}
