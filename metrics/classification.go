// Package metrics provides classification performance measures: scalar
// metrics on 0/1 codes, caret-style confusion matrix statistics, ROC
// analysis with AUC confidence intervals, and the paired t-test used to
// compare resampling distributions.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// logLossEps clips probabilities away from 0 and 1.
const logLossEps = 1e-15

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

func binaryCodes(op string, y *mat.VecDense) ([]int, error) {
	codes := make([]int, y.Len())
	for i := range codes {
		switch y.AtVec(i) {
		case 1:
			codes[i] = 1
		case 0:
		default:
			return nil, errors.NewValidationError(op, "labels must be 0 or 1", y.AtVec(i))
		}
	}
	return codes, nil
}

// AUC は ROC 曲線下面積を計算します。yTrue は 0/1、yScore は陽性クラスの
// スコアです。片方のクラスしかない場合は DegenerateLabelsError を返します。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	if _, err := checkPair("AUC", yTrue, yScore); err != nil {
		return 0, err
	}
	codes, err := binaryCodes("AUC", yTrue)
	if err != nil {
		return 0, err
	}
	roc, err := ROCFromCodes(codes, mat.Col(nil, 0, yScore), WithoutCI())
	if err != nil {
		return 0, err
	}
	return roc.AUC, nil
}

// AUCMatrix is AUC on the first column of two matrices.
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	if yTrue == nil || yScore == nil {
		return 0, errors.NewModelError("AUCMatrix", "empty data", errors.ErrEmptyData)
	}
	r, c := yTrue.Dims()
	if r == 0 || c == 0 {
		return 0, errors.NewModelError("AUCMatrix", "empty data", errors.ErrEmptyData)
	}
	return AUC(mat.NewVecDense(r, mat.Col(nil, 0, yTrue)), mat.NewVecDense(r, firstCol(yScore)))
}

func firstCol(m mat.Matrix) []float64 {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil
	}
	return mat.Col(nil, 0, m)
}

// BinaryLogLoss is the mean negative log-likelihood of 0/1 labels under
// the predicted positive-class probabilities.
func BinaryLogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yProb)
	if err != nil {
		return 0, err
	}
	codes, err := binaryCodes("BinaryLogLoss", yTrue)
	if err != nil {
		return 0, err
	}
	probs := make([]float64, n)
	for i := range probs {
		probs[i] = yProb.AtVec(i)
	}
	return LogLoss(codes, probs), nil
}

// LogLoss is BinaryLogLoss on plain slices. Lengths must match.
func LogLoss(codes []int, probs []float64) float64 {
	sum := 0.0
	for i, y := range codes {
		p := errors.ClipValue(probs[i], logLossEps, 1-logLossEps)
		if y == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(codes))
}

// Accuracy は予測ラベルが正解と一致する割合です。
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError is 1 - Accuracy.
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// Kappa is Cohen's kappa of 0/1 predictions against 0/1 labels.
func Kappa(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("Kappa", yTrue, yPred); err != nil {
		return 0, err
	}
	ref, err := binaryCodes("Kappa", yTrue)
	if err != nil {
		return 0, err
	}
	pred, err := binaryCodes("Kappa", yPred)
	if err != nil {
		return 0, err
	}
	cm, err := ConfusionFromCodes(pred, ref, [2]string{"1", "0"})
	if err != nil {
		return 0, err
	}
	return cm.Kappa(), nil
}
