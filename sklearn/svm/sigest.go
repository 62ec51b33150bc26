package svm

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// EstimateSigma returns three candidate RBF widths in the manner of
// kernlab's sigest: for random pairs drawn from half of the rows, the
// 0.9, 0.5 and 0.1 quantiles of ||x-x'||² give 1/q as low, middle and high
// estimates. X should already be standardised.
func EstimateSigma(X mat.Matrix, seed uint64) [3]float64 {
	n, d := X.Dims()
	rng := rand.New(rand.NewPCG(seed, 0x5167_e57))
	m := max(1, n/2)

	a := make([]float64, d)
	b := make([]float64, d)
	dist := make([]float64, 0, m)
	for k := 0; k < m; k++ {
		mat.Row(a, rng.IntN(n), X)
		mat.Row(b, rng.IntN(n), X)
		s := 0.0
		for j := range a {
			diff := a[j] - b[j]
			s += diff * diff
		}
		if s != 0 {
			dist = append(dist, s)
		}
	}
	if len(dist) == 0 {
		return [3]float64{1, 1, 1}
	}
	sort.Float64s(dist)

	var out [3]float64
	for i, p := range []float64{0.9, 0.5, 0.1} {
		q := stat.Quantile(p, stat.LinInterp, dist, nil)
		out[i] = 1 / q
		if math.IsInf(out[i], 0) || math.IsNaN(out[i]) {
			out[i] = 1
		}
	}
	return out
}
