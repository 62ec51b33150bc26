package model_selection

import (
	"math"

	"github.com/YuminosukeSato/tuneflow/metrics"
)

// summarize computes the summary metrics of one hold-out. Metrics that are
// undefined on the hold-out (no positives for Sens, one class for ROC) are
// NaN and silently skipped by the aggregates, so one degenerate fold does
// not flood the log with warnings.
func summarize(s Summary, codes []int, probs []float64) map[string]float64 {
	pred := make([]int, len(probs))
	for i, p := range probs {
		if p >= 0.5 {
			pred[i] = 1
		}
	}
	cm, err := metrics.ConfusionFromCodes(pred, codes, [2]string{"1", "0"})

	out := make(map[string]float64, len(s.Metrics()))
	for _, name := range s.Metrics() {
		v := math.NaN()
		if err == nil {
			v = metricValue(name, cm, codes, probs)
		}
		out[name] = v
	}
	return out
}

func metricValue(name string, cm *metrics.ConfusionMatrix, codes []int, probs []float64) float64 {
	switch name {
	case MetricAccuracy:
		if cm.N() == 0 {
			return math.NaN()
		}
		return float64(cm.TP()+cm.TN()) / float64(cm.N())
	case MetricKappa:
		n := float64(cm.N())
		predPos, refPos := float64(cm.TP()+cm.FP()), float64(cm.TP()+cm.FN())
		pe := (predPos*refPos + (n-predPos)*(n-refPos)) / (n * n)
		if n == 0 || pe == 1 {
			return math.NaN()
		}
		return cm.Kappa()
	case MetricSens:
		if cm.TP()+cm.FN() == 0 {
			return math.NaN()
		}
		return cm.Sensitivity()
	case MetricSpec:
		if cm.TN()+cm.FP() == 0 {
			return math.NaN()
		}
		return cm.Specificity()
	case MetricROC:
		roc, err := metrics.ROCFromCodes(codes, probs, metrics.WithoutCI())
		if err != nil {
			return math.NaN()
		}
		return roc.AUC
	case MetricLogLoss:
		if len(codes) == 0 {
			return math.NaN()
		}
		return metrics.LogLoss(codes, probs)
	}
	return math.NaN()
}
