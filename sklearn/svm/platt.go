package svm

import (
	"math"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// plattScaling maps a decision value f to P(positive) = 1/(1+exp(A·f+B)).
type plattScaling struct {
	A, B float64
}

func (p plattScaling) prob(f float64) float64 {
	return errors.Sigmoid(-(f*p.A + p.B))
}

// fitPlatt fits A and B by Newton's method with backtracking line search
// (Lin, Lin and Weng 2007), using Platt's smoothed targets
// (N₊+1)/(N₊+2) and 1/(N₋+2). labels holds ±1.
func fitPlatt(dec, labels []float64) (plattScaling, bool) {
	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)
	var prior1, prior0 float64
	for _, l := range labels {
		if l > 0 {
			prior1++
		} else {
			prior0++
		}
	}
	hi := (prior1 + 1) / (prior1 + 2)
	lo := 1 / (prior0 + 2)
	t := make([]float64, len(labels))
	for i, l := range labels {
		if l > 0 {
			t[i] = hi
		} else {
			t[i] = lo
		}
	}

	objective := func(A, B float64) float64 {
		f := 0.0
		for i, d := range dec {
			fApB := d*A + B
			f += (t[i]-1)*fApB + errors.Softplus(fApB)
		}
		return f
	}

	A, B := 0.0, math.Log((prior0+1)/(prior1+1))
	fval := objective(A, B)
	converged := false
	for iter := 0; iter < maxIter; iter++ {
		h11, h22, h21, g1, g2 := sigma, sigma, 0.0, 0.0, 0.0
		for i, d := range dec {
			fApB := d*A + B
			var p, q float64
			if fApB >= 0 {
				p = math.Exp(-fApB) / (1 + math.Exp(-fApB))
				q = 1 / (1 + math.Exp(-fApB))
			} else {
				p = 1 / (1 + math.Exp(fApB))
				q = math.Exp(fApB) / (1 + math.Exp(fApB))
			}
			d2 := p * q
			h11 += d * d * d2
			h22 += d2
			h21 += d * d2
			d1 := t[i] - p
			g1 += d * d1
			g2 += d1
		}
		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			converged = true
			break
		}

		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		step := 1.0
		for step >= minStep {
			newA, newB := A+step*dA, B+step*dB
			newf := objective(newA, newB)
			if newf < fval+0.0001*step*gd {
				A, B, fval = newA, newB, newf
				break
			}
			step /= 2
		}
		if step < minStep {
			// ライン探索失敗
			break
		}
	}
	return plattScaling{A: A, B: B}, converged
}
