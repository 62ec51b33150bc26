package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// TTestResult is a two-sided paired t-test of mean(a - b) = 0.
type TTestResult struct {
	N          int // pairs used (pairs with a NaN are dropped)
	MeanDiff   float64
	StdDev     float64
	T          float64
	DF         float64
	PValue     float64
	Confidence float64
	CILower    float64
	CIUpper    float64
}

// Significant reports whether the test rejects at level alpha.
func (r TTestResult) Significant(alpha float64) bool { return r.PValue < alpha }

// PairedTTest tests whether paired observations a and b share a mean.
// Identical inputs give MeanDiff 0 and PValue 1; differences with zero
// variance and non-zero mean give PValue 0.
func PairedTTest(a, b []float64, confidence float64) (TTestResult, error) {
	if len(a) != len(b) {
		return TTestResult{}, errors.NewDimensionError("PairedTTest", len(a), len(b), 0)
	}
	if !(confidence > 0 && confidence < 1) {
		return TTestResult{}, errors.NewValidationError("confidence", "must be in (0, 1)", confidence)
	}
	d := make([]float64, 0, len(a))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		d = append(d, a[i]-b[i])
	}
	n := len(d)
	if n < 2 {
		return TTestResult{}, errors.NewInsufficientDataError("PairedTTest", "", n, 2)
	}

	mean, sd := stat.MeanStdDev(d, nil)
	res := TTestResult{N: n, MeanDiff: mean, StdDev: sd, DF: float64(n - 1), Confidence: confidence}

	// 分散ゼロの場合は t 分布が退化する
	if sd == 0 || sd < 1e-12*math.Abs(mean) {
		res.StdDev = 0
		res.CILower, res.CIUpper = mean, mean
		if mean == 0 {
			res.T, res.PValue = 0, 1
		} else {
			res.T, res.PValue = math.Copysign(math.Inf(1), mean), 0
		}
		return res, nil
	}

	se := sd / math.Sqrt(float64(n))
	res.T = mean / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: res.DF}
	res.PValue = 2 * dist.Survival(math.Abs(res.T))
	q := dist.Quantile(1 - (1-confidence)/2)
	res.CILower = mean - q*se
	res.CIUpper = mean + q*se
	return res, nil
}
