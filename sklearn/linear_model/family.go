package linear_model

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/core/model"
)

// ParamLambda is the penalty parameter name.
const ParamLambda = "lambda"

// Family is "glmnet": L2-penalised logistic regression tuned over lambda.
type Family struct{}

func init() {
	model.Register(Family{})
}

func (Family) Name() string     { return "glmnet" }
func (Family) Params() []string { return []string{ParamLambda} }

// DefaultGrid is lambda = 10^-k, k = 1..L.
func (Family) DefaultGrid(_ mat.Matrix, _ []int, tuneLength int, _ uint64) *model.Grid {
	tuneLength = max(tuneLength, 1)
	lambdas := make([]float64, tuneLength)
	for k := range lambdas {
		lambdas[k] = math.Pow(10, -float64(k+1))
	}
	return model.NewGrid().Add(ParamLambda, lambdas...)
}

// Fit implements model.Family. The fitted model is never refit, so it is
// safe to share.
func (f Family) Fit(X mat.Matrix, y []int, cfg model.Config, _ uint64) (model.Classifier, error) {
	if err := model.ValidateConfig(f, cfg); err != nil {
		return nil, err
	}
	lr := NewLogisticRegression(WithLRLambda(cfg.Float(ParamLambda, 0)))
	if err := lr.Fit(X, y); err != nil {
		return nil, err
	}
	return lr, nil
}
