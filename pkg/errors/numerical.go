package errors

import (
	"math"
)

// maxReported は NumericalInstabilityError に載せる値の上限
const maxReported = 10

// CheckNumericalStability returns a NumericalInstabilityError when values
// contain NaN or ±Inf. At most ten offending values are reported.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	var bad []float64
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			bad = append(bad, v)
			if len(bad) == maxReported {
				break
			}
		}
	}
	if bad != nil {
		return NewNumericalInstabilityError(operation, bad, iteration)
	}
	return nil
}

// CheckScalar is CheckNumericalStability for one value.
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// ClipValue clips value to [lo, hi].
func ClipValue(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

// Sigmoid is 1/(1+exp(-z)), evaluated on the side that cannot overflow.
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Softplus is log(1+exp(z)).
func Softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

// Logit is log(p/(1-p)) with p clipped to [eps, 1-eps].
func Logit(p, eps float64) float64 {
	p = ClipValue(p, eps, 1-eps)
	return math.Log(p / (1 - p))
}
