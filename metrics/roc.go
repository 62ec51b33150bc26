package metrics

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// CIMethod selects how ROC computes the AUC confidence interval.
type CIMethod string

// Confidence interval methods.
const (
	CIDeLong    CIMethod = "delong"
	CIBootstrap CIMethod = "bootstrap"
	CINone      CIMethod = "none"
)

// ROC is a receiver operating characteristic curve. Point i classifies
// a record as positive when its score is >= Thresholds[i]; Thresholds
// decrease from +Inf, so FPR and TPR are non-decreasing from (0,0) to (1,1).
type ROC struct {
	Positive   string
	Thresholds []float64
	TPR        []float64
	FPR        []float64

	AUC        float64
	CILower    float64
	CIUpper    float64
	CIMethod   CIMethod
	Confidence float64

	NPositive int
	NNegative int
}

type rocOptions struct {
	method     CIMethod
	level      float64
	bootN      int
	bootSeed   uint64
	levelsName string
}

// ROCOption configures ROCCurve.
type ROCOption func(*rocOptions)

// WithConfidenceLevel sets the AUC interval level (default 0.95).
func WithConfidenceLevel(level float64) ROCOption {
	return func(o *rocOptions) { o.level = level }
}

// WithBootstrapCI computes the interval from n stratified bootstrap
// replicates (percentile method) instead of DeLong's variance.
func WithBootstrapCI(n int, seed uint64) ROCOption {
	return func(o *rocOptions) {
		o.method = CIBootstrap
		o.bootN = n
		o.bootSeed = seed
	}
}

// WithoutCI skips the interval.
func WithoutCI() ROCOption {
	return func(o *rocOptions) { o.method = CINone }
}

// ROCCurve builds the ROC of positiveProbs against reference labels, where
// positive names the event class. Every other label value is negative.
func ROCCurve(reference []string, positiveProbs []float64, positive string, opts ...ROCOption) (*ROC, error) {
	codes := make([]int, len(reference))
	for i, l := range reference {
		if l == positive {
			codes[i] = 1
		}
	}
	roc, err := ROCFromCodes(codes, positiveProbs, opts...)
	if err != nil {
		var de *errors.DegenerateLabelsError
		if errors.As(err, &de) && de.Class == "positive" {
			de.Class = positive
		}
		return nil, err
	}
	roc.Positive = positive
	return roc, nil
}

// ROCFromCodes builds the ROC of scores against 0/1 codes (1 = positive).
func ROCFromCodes(y []int, scores []float64, opts ...ROCOption) (*ROC, error) {
	o := rocOptions{method: CIDeLong, level: 0.95}
	for _, opt := range opts {
		opt(&o)
	}
	if len(y) == 0 {
		return nil, errors.NewModelError("ROC", "empty data", errors.ErrEmptyData)
	}
	if len(scores) != len(y) {
		return nil, errors.NewDimensionError("ROC", len(y), len(scores), 0)
	}
	if !(o.level > 0 && o.level < 1) {
		return nil, errors.NewValidationError("confidence", "must be in (0, 1)", o.level)
	}

	var pos, neg []float64
	for i, v := range y {
		if math.IsNaN(scores[i]) {
			return nil, errors.NewNumericalInstabilityError("ROC", []float64{scores[i]}, i)
		}
		if v == 1 {
			pos = append(pos, scores[i])
		} else {
			neg = append(neg, scores[i])
		}
	}
	switch {
	case len(pos) == 0:
		return nil, errors.NewDegenerateLabelsError("ROC", "negative")
	case len(neg) == 0:
		return nil, errors.NewDegenerateLabelsError("ROC", "positive")
	}

	sorted := append([]float64(nil), scores...)
	classes := make([]bool, len(y))
	for i, v := range y {
		classes[i] = v == 1
	}
	stat.SortWeightedLabeled(sorted, classes, nil)
	tpr, fpr, thresh := stat.ROC(nil, sorted, classes, nil)

	roc := &ROC{
		Thresholds: thresh,
		TPR:        tpr,
		FPR:        fpr,
		AUC:        integrate.Trapezoidal(fpr, tpr),
		CIMethod:   o.method,
		Confidence: o.level,
		NPositive:  len(pos),
		NNegative:  len(neg),
		CILower:    math.NaN(),
		CIUpper:    math.NaN(),
	}
	switch o.method {
	case CIDeLong:
		roc.CILower, roc.CIUpper = delongCI(pos, neg, roc.AUC, o.level)
	case CIBootstrap:
		roc.CILower, roc.CIUpper = bootstrapCI(pos, neg, o.bootN, o.bootSeed, o.level)
	}
	return roc, nil
}

// psi is the Mann-Whitney kernel.
func psi(x, y float64) float64 {
	switch {
	case x > y:
		return 1
	case x == y:
		return 0.5
	}
	return 0
}

// delongCI uses DeLong, DeLong and Clarke-Pearson (1988) structural
// components for the AUC variance and a normal interval clipped to [0,1].
func delongCI(pos, neg []float64, auc, level float64) (float64, float64) {
	m, n := len(pos), len(neg)
	v10 := make([]float64, m)
	v01 := make([]float64, n)
	for i, x := range pos {
		for j, yv := range neg {
			s := psi(x, yv)
			v10[i] += s
			v01[j] += s
		}
	}
	for i := range v10 {
		v10[i] /= float64(n)
	}
	for j := range v01 {
		v01[j] /= float64(m)
	}
	variance := 0.0
	if m > 1 {
		variance += stat.Variance(v10, nil) / float64(m)
	}
	if n > 1 {
		variance += stat.Variance(v01, nil) / float64(n)
	}
	z := distuv.UnitNormal.Quantile(1 - (1-level)/2)
	half := z * math.Sqrt(variance)
	return math.Max(0, auc-half), math.Min(1, auc+half)
}

// mannWhitneyAUC is the AUC from midranks, O((m+n) log(m+n)).
func mannWhitneyAUC(pos, neg []float64) float64 {
	type obs struct {
		v   float64
		pos bool
	}
	all := make([]obs, 0, len(pos)+len(neg))
	for _, v := range pos {
		all = append(all, obs{v, true})
	}
	for _, v := range neg {
		all = append(all, obs{v, false})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].v < all[j].v })

	rankSum := 0.0
	for i := 0; i < len(all); {
		j := i
		for j < len(all) && all[j].v == all[i].v {
			j++
		}
		mid := float64(i+j+1) / 2 // 1始まりの平均順位
		for k := i; k < j; k++ {
			if all[k].pos {
				rankSum += mid
			}
		}
		i = j
	}
	m, n := float64(len(pos)), float64(len(neg))
	return (rankSum - m*(m+1)/2) / (m * n)
}

// bootstrapCI resamples positives and negatives separately.
func bootstrapCI(pos, neg []float64, reps int, seed uint64, level float64) (float64, float64) {
	if reps < 2 {
		reps = 2000
	}
	rng := rand.New(rand.NewPCG(seed, 0xb007))
	aucs := make([]float64, reps)
	bp := make([]float64, len(pos))
	bn := make([]float64, len(neg))
	for r := range aucs {
		for i := range bp {
			bp[i] = pos[rng.IntN(len(pos))]
		}
		for j := range bn {
			bn[j] = neg[rng.IntN(len(neg))]
		}
		aucs[r] = mannWhitneyAUC(bp, bn)
	}
	sort.Float64s(aucs)
	alpha := 1 - level
	return stat.Quantile(alpha/2, stat.LinInterp, aucs, nil),
		stat.Quantile(1-alpha/2, stat.LinInterp, aucs, nil)
}

// Sensitivities returns TPR, the sensitivity at each threshold.
func (r *ROC) Sensitivities() []float64 { return append([]float64(nil), r.TPR...) }

// Specificities returns 1 - FPR at each threshold.
func (r *ROC) Specificities() []float64 {
	out := make([]float64, len(r.FPR))
	for i, f := range r.FPR {
		out[i] = 1 - f
	}
	return out
}

// Threshold is one operating point of a ROC curve.
type Threshold struct {
	Value       float64
	Sensitivity float64
	Specificity float64
}

// BestThreshold maximises Youden's J = sensitivity + specificity - 1. Ties
// keep the highest threshold.
func (r *ROC) BestThreshold() Threshold {
	best, bestJ := 0, math.Inf(-1)
	for i := range r.TPR {
		if j := r.TPR[i] - r.FPR[i]; j > bestJ {
			best, bestJ = i, j
		}
	}
	return Threshold{Value: r.Thresholds[best], Sensitivity: r.TPR[best], Specificity: 1 - r.FPR[best]}
}
