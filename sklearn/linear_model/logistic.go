// Package linear_model implements the "glmnet" model family: binary
// logistic regression with an L2 penalty.
package linear_model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
	"github.com/YuminosukeSato/tuneflow/preprocessing"
)

// minRidge keeps the Hessian positive definite when lambda is 0.
const minRidge = 1e-8

// LogisticRegression implements binary logistic regression fitted by
// Newton's method (IRLS) on standardised features. The intercept is not
// penalised.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	lambda       float64 // L2 penalty on the mean log-loss
	fitIntercept bool
	maxIter      int
	tol          float64

	// Model parameters (standardised feature space)
	scaler     *preprocessing.StandardScaler
	coef_      []float64
	intercept_ float64
	nIter_     int
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-6,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRLambda sets the L2 penalty
func WithLRLambda(lambda float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.lambda = lambda
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of Newton iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance on the largest coefficient change
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// Fit trains the model on X with 0/1 labels y.
func (lr *LogisticRegression) Fit(X mat.Matrix, y []int) error {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(y) != nSamples {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, len(y), 0)
	}
	if lr.lambda < 0 || math.IsNaN(lr.lambda) {
		return errors.NewValidationError(ParamLambda, "must be non-negative", lr.lambda)
	}

	lr.scaler = preprocessing.NewStandardScalerDefault()
	Z, err := lr.scaler.FitTransform(X)
	if err != nil {
		return err
	}

	// 切片列を先頭に付けた計画行列
	p := nFeatures + 1
	A := mat.NewDense(nSamples, p, nil)
	for i := 0; i < nSamples; i++ {
		if lr.fitIntercept {
			A.Set(i, 0, 1)
		}
		for j := 0; j < nFeatures; j++ {
			A.Set(i, j+1, Z.At(i, j))
		}
	}
	target := make([]float64, nSamples)
	for i, v := range y {
		target[i] = float64(v)
	}

	beta := mat.NewVecDense(p, nil)
	n := float64(nSamples)
	lambda := lr.lambda
	converged := false

	for iter := 0; iter < lr.maxIter; iter++ {
		lr.nIter_ = iter + 1
		eta := mat.NewVecDense(nSamples, nil)
		eta.MulVec(A, beta)

		// 勾配 g = Aᵀ(μ−y)/n + λβ、ヘッセ行列 H = AᵀWA/n + λI
		resid := mat.NewVecDense(nSamples, nil)
		W := make([]float64, nSamples)
		for i := 0; i < nSamples; i++ {
			mu := errors.Sigmoid(eta.AtVec(i))
			resid.SetVec(i, (mu-target[i])/n)
			W[i] = mu * (1 - mu) / n
		}
		grad := mat.NewVecDense(p, nil)
		grad.MulVec(A.T(), resid)

		H := mat.NewSymDense(p, nil)
		for a := 0; a < p; a++ {
			for b := a; b < p; b++ {
				s := 0.0
				for i := 0; i < nSamples; i++ {
					s += A.At(i, a) * W[i] * A.At(i, b)
				}
				H.SetSym(a, b, s)
			}
		}
		for j := 0; j < p; j++ {
			ridge := minRidge
			if j > 0 {
				ridge += lambda
				grad.SetVec(j, grad.AtVec(j)+lambda*beta.AtVec(j))
			}
			H.SetSym(j, j, H.At(j, j)+ridge)
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(H); !ok {
			return errors.NewModelError("LogisticRegression.Fit", "singular Hessian", errors.ErrSingularMatrix)
		}
		step := mat.NewVecDense(p, nil)
		if err := chol.SolveVecTo(step, grad); err != nil {
			return errors.NewModelError("LogisticRegression.Fit", "singular Hessian", errors.WithStack(err))
		}

		// ステップ半減で目的関数を単調減少させる
		current := lr.penalisedLoss(A, target, beta)
		t := 1.0
		next := mat.NewVecDense(p, nil)
		for half := 0; half < 30; half++ {
			next.AddScaledVec(beta, -t, step)
			if lr.penalisedLoss(A, target, next) <= current+1e-12 {
				break
			}
			t /= 2
		}
		maxChange := 0.0
		for j := 0; j < p; j++ {
			maxChange = math.Max(maxChange, math.Abs(next.AtVec(j)-beta.AtVec(j)))
		}
		beta.CopyVec(next)
		if err := errors.CheckNumericalStability("LogisticRegression.Fit", beta.RawVector().Data, iter); err != nil {
			return err
		}
		if maxChange < lr.tol {
			converged = true
			break
		}
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.nIter_,
			"Newton iterations did not converge; the data may be separable, consider a larger lambda"))
	}

	lr.intercept_ = beta.AtVec(0)
	lr.coef_ = make([]float64, nFeatures)
	for j := range lr.coef_ {
		lr.coef_[j] = beta.AtVec(j + 1)
	}
	lr.state.SetFitted(nFeatures, nSamples)
	return nil
}

// penalisedLoss is the mean log-loss plus λ/2·||w||² (intercept excluded).
func (lr *LogisticRegression) penalisedLoss(A *mat.Dense, y []float64, beta *mat.VecDense) float64 {
	nSamples, p := A.Dims()
	eta := mat.NewVecDense(nSamples, nil)
	eta.MulVec(A, beta)
	loss := 0.0
	for i := 0; i < nSamples; i++ {
		z := eta.AtVec(i)
		loss += errors.Softplus(z) - y[i]*z
	}
	loss /= float64(nSamples)
	pen := 0.0
	for j := 1; j < p; j++ {
		pen += beta.AtVec(j) * beta.AtVec(j)
	}
	return loss + 0.5*lr.lambda*pen
}

// DecisionFunction returns the linear predictor per row.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) ([]float64, error) {
	_, c := X.Dims()
	if err := lr.state.RequireFitted("LogisticRegression", "DecisionFunction", c); err != nil {
		return nil, err
	}
	Z, err := lr.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	r, _ := Z.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		z := lr.intercept_
		for j, w := range lr.coef_ {
			z += w * Z.At(i, j)
		}
		out[i] = z
	}
	return out, nil
}

// PredictProba returns P(positive class) per row.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) ([]float64, error) {
	z, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	for i, v := range z {
		z[i] = errors.Sigmoid(v)
	}
	return z, nil
}

// Coef returns the coefficients on the standardised features.
func (lr *LogisticRegression) Coef() []float64 {
	out := make([]float64, len(lr.coef_))
	copy(out, lr.coef_)
	return out
}

// Intercept returns the intercept.
func (lr *LogisticRegression) Intercept() float64 { return lr.intercept_ }

// NIter returns the number of Newton iterations run.
func (lr *LogisticRegression) NIter() int { return lr.nIter_ }

// IsFitted reports whether Fit succeeded.
func (lr *LogisticRegression) IsFitted() bool { return lr.state.IsFitted() }

// FeatureImportance is |coefficient| on the standardised scale.
func (lr *LogisticRegression) FeatureImportance() []float64 {
	out := make([]float64, len(lr.coef_))
	for j, w := range lr.coef_ {
		out[j] = math.Abs(w)
	}
	return out
}

func (lr *LogisticRegression) String() string {
	return fmt.Sprintf("LogisticRegression(lambda=%g, max_iter=%d)", lr.lambda, lr.maxIter)
}
