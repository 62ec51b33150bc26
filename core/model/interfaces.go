// Package model defines the capability every model family implements and
// the hyperparameter grid the trainer searches over.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Classifier is a fitted binary classifier. Implementations are immutable
// once returned from Family.Fit and safe for concurrent PredictProba calls.
type Classifier interface {
	// PredictProba returns P(positive class) for every row of X.
	PredictProba(X mat.Matrix) ([]float64, error)
}

// Family is one model family (gradient boosting, radial SVM, ...). The
// trainer only talks to families through this interface, so adding a family
// needs no trainer change.
type Family interface {
	// Name is the registry name, e.g. "gbm" or "svmRadial".
	Name() string

	// Params lists the hyperparameter names Fit accepts.
	Params() []string

	// DefaultGrid returns the grid used when the caller supplies none.
	// tuneLength controls how many values each tuned axis gets.
	DefaultGrid(X mat.Matrix, y []int, tuneLength int, seed uint64) *Grid

	// Fit trains on X with labels y (1 = positive, 0 = negative) using cfg.
	// seed drives every random choice the learner makes.
	Fit(X mat.Matrix, y []int, cfg Config, seed uint64) (Classifier, error)
}

// DecisionFunctioner is implemented by classifiers exposing raw margins.
type DecisionFunctioner interface {
	DecisionFunction(X mat.Matrix) ([]float64, error)
}

// FeatureImportancer is implemented by classifiers that can rank inputs.
type FeatureImportancer interface {
	FeatureImportance() []float64
}
