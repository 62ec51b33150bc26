package ensemble

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// separable returns n rows where column 0 decides the class and column 1 is noise.
func separable(n int, seed uint64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewPCG(seed, 1))
	X := mat.NewDense(n, 2, nil)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		y[i] = i % 2
		X.Set(i, 0, float64(y[i])*2-1+0.3*rng.NormFloat64())
		X.Set(i, 1, rng.NormFloat64())
	}
	return X, y
}

func TestGradientBoostingLearnsSeparableData(t *testing.T) {
	X, y := separable(120, 3)
	params := DefaultParams()
	params.NTrees = 50
	params.InteractionDepth = 2

	m, err := Fit(X, y, params, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, m.NumTrees())

	probs, err := m.PredictProba(X)
	require.NoError(t, err)
	correct := 0
	for i, p := range probs {
		assert.True(t, p >= 0 && p <= 1)
		if (p >= 0.5) == (y[i] == 1) {
			correct++
		}
	}
	assert.GreaterOrEqual(t, correct, 114, "training accuracy should be at least 95%%")

	imp := m.FeatureImportance()
	require.Len(t, imp, 2)
	assert.InDelta(t, 100, imp[0]+imp[1], 1e-9)
	assert.Greater(t, imp[0], imp[1])
}

func TestGradientBoostingTreeShape(t *testing.T) {
	X, y := separable(200, 5)
	for _, depth := range []int{1, 3, 5} {
		params := DefaultParams()
		params.NTrees = 3
		params.InteractionDepth = depth
		params.MinObsInNode = 5
		m, err := Fit(X, y, params, 1)
		require.NoError(t, err)
		for _, tree := range m.trees {
			assert.LessOrEqual(t, tree.NumLeaves(), depth+1, "depth=%d", depth)
		}
	}
}

func TestGradientBoostingDeterministic(t *testing.T) {
	X, y := separable(80, 9)
	params := DefaultParams()
	params.NTrees = 20
	params.BagFraction = 0.5

	a, err := Fit(X, y, params, 11)
	require.NoError(t, err)
	b, err := Fit(X, y, params, 11)
	require.NoError(t, err)
	pa, _ := a.PredictProba(X)
	pb, _ := b.PredictProba(X)
	assert.Equal(t, pa, pb)
}

func TestGradientBoostingInitScore(t *testing.T) {
	// 分割できないデータでは事前確率を返す
	X := mat.NewDense(10, 1, nil)
	y := []int{1, 1, 1, 0, 0, 0, 0, 0, 0, 0}
	m, err := Fit(X, y, DefaultParams(), 1)
	require.NoError(t, err)
	probs, err := m.PredictProba(X)
	require.NoError(t, err)
	for _, p := range probs {
		assert.InDelta(t, 0.3, p, 1e-9)
	}
}

func TestParamsValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.Config
	}{
		{"zero trees", model.Config{{Name: ParamNTrees, Value: 0}}},
		{"zero depth", model.Config{{Name: ParamInteractionDepth, Value: 0}}},
		{"shrinkage", model.Config{{Name: ParamShrinkage, Value: 1.5}}},
		{"bag", model.Config{{Name: ParamBagFraction, Value: 0}}},
		{"lambda", model.Config{{Name: ParamLambda, Value: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParamsFromConfig(tt.cfg)
			var ve *errors.ValidationError
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestFamily(t *testing.T) {
	f, err := model.Lookup("gbm")
	require.NoError(t, err)

	g := f.DefaultGrid(nil, nil, 3, 0)
	assert.Equal(t, 9, g.Len())
	cfgs := g.Configs()
	assert.Equal(t, "interaction_depth=1, n_trees=50, shrinkage=0.1, n_minobsinnode=10", cfgs[0].String())
	assert.Equal(t, "interaction_depth=2, n_trees=50, shrinkage=0.1, n_minobsinnode=10", cfgs[1].String())
	require.NoError(t, g.Validate(f))

	X, y := separable(40, 1)
	_, err = f.Fit(X, y, model.Config{{Name: "sigma", Value: 1}}, 1)
	assert.Error(t, err)

	clf, err := f.Fit(X, y, cfgs[0], 1)
	require.NoError(t, err)
	_, err = clf.PredictProba(mat.NewDense(1, 3, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
	_, isDF := clf.(model.DecisionFunctioner)
	assert.True(t, isDF)
	assert.False(t, math.IsNaN(clf.(*GradientBoostingClassifier).initScore))
}
