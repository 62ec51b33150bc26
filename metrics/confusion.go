package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// ConfusionMatrix is a 2×2 table of predicted (rows) against reference
// (columns) classes. Index 0 is the positive class.
type ConfusionMatrix struct {
	Levels [2]string
	Table  [2][2]int
}

// ConfusionLevel is the confidence level of AccuracyCI.
const ConfusionLevel = 0.95

// NewConfusionMatrix tabulates predicted against reference labels. The
// negative level is the other label seen in either slice.
func NewConfusionMatrix(predicted, reference []string, positive string) (*ConfusionMatrix, error) {
	if len(predicted) == 0 {
		return nil, errors.NewModelError("NewConfusionMatrix", "empty data", errors.ErrEmptyData)
	}
	if len(predicted) != len(reference) {
		return nil, errors.NewDimensionError("NewConfusionMatrix", len(reference), len(predicted), 0)
	}
	negative := ""
	for _, set := range [][]string{reference, predicted} {
		for _, v := range set {
			if v == positive {
				continue
			}
			if negative == "" {
				negative = v
			} else if v != negative {
				return nil, errors.NewValidationError("labels", "more than two classes", []string{positive, negative, v})
			}
		}
	}
	cm := &ConfusionMatrix{Levels: [2]string{positive, negative}}
	for i, p := range predicted {
		cm.Table[levelIndex(p, positive)][levelIndex(reference[i], positive)]++
	}
	return cm, nil
}

func levelIndex(v, positive string) int {
	if v == positive {
		return 0
	}
	return 1
}

// ConfusionFromCodes tabulates 0/1 codes (1 = positive) and names the
// levels positive first.
func ConfusionFromCodes(predicted, reference []int, levels [2]string) (*ConfusionMatrix, error) {
	if len(predicted) == 0 {
		return nil, errors.NewModelError("ConfusionFromCodes", "empty data", errors.ErrEmptyData)
	}
	if len(predicted) != len(reference) {
		return nil, errors.NewDimensionError("ConfusionFromCodes", len(reference), len(predicted), 0)
	}
	cm := &ConfusionMatrix{Levels: levels}
	for i, p := range predicted {
		r := reference[i]
		if (p != 0 && p != 1) || (r != 0 && r != 1) {
			return nil, errors.NewValidationError("codes", "codes must be 0 or 1", [2]int{p, r})
		}
		cm.Table[1-p][1-r]++
	}
	return cm, nil
}

// TP, FP, FN and TN are the four cells.
func (c *ConfusionMatrix) TP() int { return c.Table[0][0] }
func (c *ConfusionMatrix) FP() int { return c.Table[0][1] }
func (c *ConfusionMatrix) FN() int { return c.Table[1][0] }
func (c *ConfusionMatrix) TN() int { return c.Table[1][1] }

// N is the number of records tabulated.
func (c *ConfusionMatrix) N() int { return c.TP() + c.FP() + c.FN() + c.TN() }

func (c *ConfusionMatrix) ratio(metric string, num, den int) float64 {
	if den == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(metric, "denominator is zero", math.NaN()))
		return math.NaN()
	}
	return float64(num) / float64(den)
}

// Accuracy is (TP+TN)/N.
func (c *ConfusionMatrix) Accuracy() float64 {
	return c.ratio("Accuracy", c.TP()+c.TN(), c.N())
}

// AccuracyCI is the exact (Clopper-Pearson) 95% interval for Accuracy.
func (c *ConfusionMatrix) AccuracyCI() (lower, upper float64) {
	return clopperPearson(c.TP()+c.TN(), c.N(), ConfusionLevel)
}

func clopperPearson(x, n int, level float64) (lower, upper float64) {
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	alpha := 1 - level
	lower, upper = 0, 1
	if x > 0 {
		lower = distuv.Beta{Alpha: float64(x), Beta: float64(n - x + 1)}.Quantile(alpha / 2)
	}
	if x < n {
		upper = distuv.Beta{Alpha: float64(x + 1), Beta: float64(n - x)}.Quantile(1 - alpha/2)
	}
	return lower, upper
}

// NoInformationRate is the share of the larger reference class.
func (c *ConfusionMatrix) NoInformationRate() float64 {
	pos := c.TP() + c.FN()
	neg := c.FP() + c.TN()
	return c.ratio("NoInformationRate", max(pos, neg), c.N())
}

// AccuracyPValue is the one-sided binomial test P[X >= correct] with
// success probability NoInformationRate.
func (c *ConfusionMatrix) AccuracyPValue() float64 {
	n := c.N()
	if n == 0 {
		return math.NaN()
	}
	x := c.TP() + c.TN()
	nir := c.NoInformationRate()
	if x == 0 {
		return 1
	}
	if nir >= 1 {
		if x == n {
			return 1
		}
		return 0
	}
	b := distuv.Binomial{N: float64(n), P: nir}
	return 1 - b.CDF(float64(x-1))
}

// Kappa is Cohen's kappa.
func (c *ConfusionMatrix) Kappa() float64 {
	n := float64(c.N())
	if n == 0 {
		return math.NaN()
	}
	po := float64(c.TP()+c.TN()) / n
	predPos, predNeg := float64(c.TP()+c.FP()), float64(c.FN()+c.TN())
	refPos, refNeg := float64(c.TP()+c.FN()), float64(c.FP()+c.TN())
	pe := (predPos*refPos + predNeg*refNeg) / (n * n)
	if pe == 1 {
		errors.Warn(errors.NewUndefinedMetricWarning("Kappa", "expected agreement is 1", math.NaN()))
		return math.NaN()
	}
	return (po - pe) / (1 - pe)
}

// McNemarPValue is the continuity-corrected McNemar test of the
// off-diagonal cells, NaN when both are zero.
func (c *ConfusionMatrix) McNemarPValue() float64 {
	b, d := float64(c.FP()), float64(c.FN())
	if b+d == 0 {
		return math.NaN()
	}
	stat := math.Pow(math.Abs(b-d)-1, 2) / (b + d)
	return 1 - distuv.ChiSquared{K: 1}.CDF(stat)
}

// Sensitivity is TP/(TP+FN).
func (c *ConfusionMatrix) Sensitivity() float64 {
	return c.ratio("Sensitivity", c.TP(), c.TP()+c.FN())
}

// Specificity is TN/(TN+FP).
func (c *ConfusionMatrix) Specificity() float64 {
	return c.ratio("Specificity", c.TN(), c.TN()+c.FP())
}

// PosPredValue is TP/(TP+FP).
func (c *ConfusionMatrix) PosPredValue() float64 {
	return c.ratio("PosPredValue", c.TP(), c.TP()+c.FP())
}

// NegPredValue is TN/(TN+FN).
func (c *ConfusionMatrix) NegPredValue() float64 {
	return c.ratio("NegPredValue", c.TN(), c.TN()+c.FN())
}

// Precision equals PosPredValue.
func (c *ConfusionMatrix) Precision() float64 { return c.PosPredValue() }

// Recall equals Sensitivity.
func (c *ConfusionMatrix) Recall() float64 { return c.Sensitivity() }

// F1 is the harmonic mean of precision and recall.
func (c *ConfusionMatrix) F1() float64 {
	return c.ratio("F1", 2*c.TP(), 2*c.TP()+c.FP()+c.FN())
}

// Prevalence is the share of positive reference records.
func (c *ConfusionMatrix) Prevalence() float64 {
	return c.ratio("Prevalence", c.TP()+c.FN(), c.N())
}

// DetectionRate is TP/N.
func (c *ConfusionMatrix) DetectionRate() float64 {
	return c.ratio("DetectionRate", c.TP(), c.N())
}

// DetectionPrevalence is the share of positive predictions.
func (c *ConfusionMatrix) DetectionPrevalence() float64 {
	return c.ratio("DetectionPrevalence", c.TP()+c.FP(), c.N())
}

// BalancedAccuracy is the mean of sensitivity and specificity.
func (c *ConfusionMatrix) BalancedAccuracy() float64 {
	return (c.Sensitivity() + c.Specificity()) / 2
}

// ConfusionStats holds every derived statistic, in the order caret prints them.
type ConfusionStats struct {
	Accuracy            float64
	AccuracyLower       float64
	AccuracyUpper       float64
	NoInformationRate   float64
	AccuracyPValue      float64
	Kappa               float64
	McNemarPValue       float64
	Sensitivity         float64
	Specificity         float64
	PosPredValue        float64
	NegPredValue        float64
	Precision           float64
	Recall              float64
	F1                  float64
	Prevalence          float64
	DetectionRate       float64
	DetectionPrevalence float64
	BalancedAccuracy    float64
}

// Stats computes all statistics at once.
func (c *ConfusionMatrix) Stats() ConfusionStats {
	lo, hi := c.AccuracyCI()
	return ConfusionStats{
		Accuracy:            c.Accuracy(),
		AccuracyLower:       lo,
		AccuracyUpper:       hi,
		NoInformationRate:   c.NoInformationRate(),
		AccuracyPValue:      c.AccuracyPValue(),
		Kappa:               c.Kappa(),
		McNemarPValue:       c.McNemarPValue(),
		Sensitivity:         c.Sensitivity(),
		Specificity:         c.Specificity(),
		PosPredValue:        c.PosPredValue(),
		NegPredValue:        c.NegPredValue(),
		Precision:           c.Precision(),
		Recall:              c.Recall(),
		F1:                  c.F1(),
		Prevalence:          c.Prevalence(),
		DetectionRate:       c.DetectionRate(),
		DetectionPrevalence: c.DetectionPrevalence(),
		BalancedAccuracy:    c.BalancedAccuracy(),
	}
}

// Fields returns the statistics as ordered name/value pairs for tables.
func (s ConfusionStats) Fields() []NamedValue {
	return []NamedValue{
		{"Accuracy", s.Accuracy},
		{"95% CI lower", s.AccuracyLower},
		{"95% CI upper", s.AccuracyUpper},
		{"No Information Rate", s.NoInformationRate},
		{"P-Value [Acc > NIR]", s.AccuracyPValue},
		{"Kappa", s.Kappa},
		{"Mcnemar's Test P-Value", s.McNemarPValue},
		{"Sensitivity", s.Sensitivity},
		{"Specificity", s.Specificity},
		{"Pos Pred Value", s.PosPredValue},
		{"Neg Pred Value", s.NegPredValue},
		{"Precision", s.Precision},
		{"Recall", s.Recall},
		{"F1", s.F1},
		{"Prevalence", s.Prevalence},
		{"Detection Rate", s.DetectionRate},
		{"Detection Prevalence", s.DetectionPrevalence},
		{"Balanced Accuracy", s.BalancedAccuracy},
	}
}

// NamedValue is one labelled statistic.
type NamedValue struct {
	Name  string
	Value float64
}
