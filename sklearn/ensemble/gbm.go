// Package ensemble implements the "gbm" model family: stochastic gradient
// boosting of regression trees under Bernoulli deviance.
package ensemble

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// Parameter names accepted by the gbm family.
const (
	ParamNTrees           = "n_trees"
	ParamInteractionDepth = "interaction_depth"
	ParamShrinkage        = "shrinkage"
	ParamMinObsInNode     = "n_minobsinnode"
	ParamBagFraction      = "bag_fraction"
	ParamLambda           = "lambda"
)

// Params contains all training hyperparameters
type Params struct {
	NTrees           int     `json:"n_trees"`
	InteractionDepth int     `json:"interaction_depth"` // splits per tree
	Shrinkage        float64 `json:"shrinkage"`
	MinObsInNode     int     `json:"n_minobsinnode"`
	BagFraction      float64 `json:"bag_fraction"`
	Lambda           float64 `json:"lambda"` // L2 penalty on leaf values
}

// DefaultParams mirrors R gbm defaults except bag_fraction, which is 1 so
// that a fit is deterministic unless subsampling is asked for.
func DefaultParams() Params {
	return Params{
		NTrees:           100,
		InteractionDepth: 1,
		Shrinkage:        0.1,
		MinObsInNode:     10,
		BagFraction:      1,
		Lambda:           0,
	}
}

// ParamsFromConfig overlays cfg on the defaults and validates the result.
func ParamsFromConfig(cfg model.Config) (Params, error) {
	p := DefaultParams()
	p.NTrees = cfg.Int(ParamNTrees, p.NTrees)
	p.InteractionDepth = cfg.Int(ParamInteractionDepth, p.InteractionDepth)
	p.Shrinkage = cfg.Float(ParamShrinkage, p.Shrinkage)
	p.MinObsInNode = cfg.Int(ParamMinObsInNode, p.MinObsInNode)
	p.BagFraction = cfg.Float(ParamBagFraction, p.BagFraction)
	p.Lambda = cfg.Float(ParamLambda, p.Lambda)
	return p, p.Validate()
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	switch {
	case p.NTrees < 1:
		return errors.NewValidationError(ParamNTrees, "must be at least 1", p.NTrees)
	case p.InteractionDepth < 1:
		return errors.NewValidationError(ParamInteractionDepth, "must be at least 1", p.InteractionDepth)
	case !(p.Shrinkage > 0 && p.Shrinkage <= 1):
		return errors.NewValidationError(ParamShrinkage, "must be in (0, 1]", p.Shrinkage)
	case p.MinObsInNode < 1:
		return errors.NewValidationError(ParamMinObsInNode, "must be at least 1", p.MinObsInNode)
	case !(p.BagFraction > 0 && p.BagFraction <= 1):
		return errors.NewValidationError(ParamBagFraction, "must be in (0, 1]", p.BagFraction)
	case p.Lambda < 0 || math.IsNaN(p.Lambda):
		return errors.NewValidationError(ParamLambda, "must be non-negative", p.Lambda)
	}
	return nil
}

// GradientBoostingClassifier is a fitted boosting ensemble. It is immutable.
type GradientBoostingClassifier struct {
	params     Params
	initScore  float64
	trees      []Tree
	nFeatures  int
	importance []float64
}

// Fit trains a classifier on X with 0/1 labels y.
func Fit(X mat.Matrix, y []int, params Params, seed uint64) (*GradientBoostingClassifier, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("GradientBoosting.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(y) != r {
		return nil, errors.NewDimensionError("GradientBoosting.Fit", r, len(y), 0)
	}
	return newTrainer(X, y, params, seed).run()
}

// Params returns the hyperparameters the model was trained with.
func (m *GradientBoostingClassifier) Params() Params { return m.params }

// NumTrees returns the number of boosting stages.
func (m *GradientBoostingClassifier) NumTrees() int { return len(m.trees) }

// DecisionFunction returns the boosted log-odds F(x) per row.
func (m *GradientBoostingClassifier) DecisionFunction(X mat.Matrix) ([]float64, error) {
	r, c := X.Dims()
	if c != m.nFeatures {
		return nil, errors.NewDimensionError("GradientBoosting.DecisionFunction", m.nFeatures, c, 1)
	}
	out := make([]float64, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		f := m.initScore
		for t := range m.trees {
			f += m.trees[t].Predict(row)
		}
		out[i] = f
	}
	if err := errors.CheckNumericalStability("GradientBoosting.DecisionFunction", out, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// PredictProba returns sigmoid(F(x)), the probability of the positive class.
func (m *GradientBoostingClassifier) PredictProba(X mat.Matrix) ([]float64, error) {
	f, err := m.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	for i, v := range f {
		f[i] = errors.Sigmoid(v)
	}
	return f, nil
}

// FeatureImportance returns the relative influence of each input column,
// summing to 100 (all zero when no tree split).
func (m *GradientBoostingClassifier) FeatureImportance() []float64 {
	out := make([]float64, len(m.importance))
	copy(out, m.importance)
	return out
}

func (m *GradientBoostingClassifier) String() string {
	return fmt.Sprintf("GradientBoostingClassifier(n_trees=%d, interaction_depth=%d, shrinkage=%g, n_minobsinnode=%d)",
		m.params.NTrees, m.params.InteractionDepth, m.params.Shrinkage, m.params.MinObsInNode)
}

// Family is the "gbm" model family.
type Family struct{}

func init() {
	model.Register(Family{})
}

// Name returns "gbm".
func (Family) Name() string { return "gbm" }

// Params lists the accepted hyperparameters.
func (Family) Params() []string {
	return []string{ParamInteractionDepth, ParamNTrees, ParamShrinkage, ParamMinObsInNode, ParamBagFraction, ParamLambda}
}

// DefaultGrid tunes depth 1..L against 50·(1..L) trees at shrinkage 0.1,
// like caret's default gbm grid.
func (Family) DefaultGrid(_ mat.Matrix, _ []int, tuneLength int, _ uint64) *model.Grid {
	tuneLength = max(tuneLength, 1)
	depths := make([]float64, tuneLength)
	trees := make([]float64, tuneLength)
	for k := range depths {
		depths[k] = float64(k + 1)
		trees[k] = float64(50 * (k + 1))
	}
	return model.NewGrid().
		Add(ParamInteractionDepth, depths...).
		Add(ParamNTrees, trees...).
		Add(ParamShrinkage, 0.1).
		Add(ParamMinObsInNode, 10)
}

// Fit implements model.Family.
func (f Family) Fit(X mat.Matrix, y []int, cfg model.Config, seed uint64) (model.Classifier, error) {
	if err := model.ValidateConfig(f, cfg); err != nil {
		return nil, err
	}
	params, err := ParamsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return Fit(X, y, params, seed)
}
