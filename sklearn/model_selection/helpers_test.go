package model_selection

import (
	"sync/atomic"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/dataset"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// signFamily predicts positive when the first column exceeds a threshold.
// Optional knobs make it fail on the n-th fit or on full-data refits.
type signFamily struct {
	calls      *atomic.Int64
	failOnCall int64 // 1-based; 0 never
	failOnSize int   // fail when the training set has this many rows
}

func newSignFamily() *signFamily { return &signFamily{calls: new(atomic.Int64)} }

func (f *signFamily) Name() string     { return "sign" }
func (f *signFamily) Params() []string { return []string{"threshold"} }

func (f *signFamily) DefaultGrid(_ mat.Matrix, _ []int, tuneLength int, _ uint64) *model.Grid {
	vals := make([]float64, tuneLength)
	for i := range vals {
		vals[i] = float64(i) * 0.5
	}
	return model.NewGrid().Add("threshold", vals...)
}

func (f *signFamily) Fit(X mat.Matrix, y []int, cfg model.Config, _ uint64) (model.Classifier, error) {
	call := f.calls.Add(1)
	n, _ := X.Dims()
	if call == f.failOnCall || n == f.failOnSize {
		return nil, errors.New("sign: induced failure")
	}
	return signClassifier{threshold: cfg.Float("threshold", 0)}, nil
}

type signClassifier struct{ threshold float64 }

func (c signClassifier) PredictProba(X mat.Matrix) ([]float64, error) {
	n, _ := X.Dims()
	out := make([]float64, n)
	for i := range out {
		if X.At(i, 0) > c.threshold {
			out[i] = 0.9
		} else {
			out[i] = 0.1
		}
	}
	return out, nil
}

// separable returns pos positives at x=+1 and neg negatives at x=-1.
func separable(pos, neg int) (*dataset.Dataset, error) {
	n := pos + neg
	x := make([]float64, n)
	labels := make([]string, n)
	for i := range labels {
		if i < pos {
			x[i], labels[i] = 1, "yes"
		} else {
			x[i], labels[i] = -1, "no"
		}
	}
	return dataset.New([]dataset.Feature{dataset.NumericFeature("x", x)}, "y", labels, dataset.WithPositiveClass("yes"))
}
