package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

type stubFamily struct{}

func (stubFamily) Name() string     { return "stub" }
func (stubFamily) Params() []string { return []string{"depth", "trees", "rate"} }
func (stubFamily) DefaultGrid(mat.Matrix, []int, int, uint64) *Grid {
	return NewGrid()
}
func (stubFamily) Fit(mat.Matrix, []int, Config, uint64) (Classifier, error) {
	return nil, errors.New("not used")
}

func TestGridConfigsFirstAxisFastest(t *testing.T) {
	g := NewGrid().
		Add("depth", 1, 5, 9).
		Add("trees", 50, 100)

	require.Equal(t, 6, g.Len())
	cfgs := g.Configs()
	require.Len(t, cfgs, 6)

	want := [][2]float64{{1, 50}, {5, 50}, {9, 50}, {1, 100}, {5, 100}, {9, 100}}
	for i, w := range want {
		assert.Equal(t, w[0], cfgs[i].Float("depth", -1), "config %d", i)
		assert.Equal(t, w[1], cfgs[i].Float("trees", -1), "config %d", i)
		assert.Equal(t, []string{"depth", "trees"}, cfgs[i].Names())
	}
}

func TestEmptyGridHasOneDefaultConfig(t *testing.T) {
	var nilGrid *Grid
	assert.Equal(t, 1, nilGrid.Len())
	assert.Equal(t, []Config{{}}, nilGrid.Configs())
	assert.Equal(t, []Config{{}}, NewGrid().Configs())
	assert.Equal(t, "default", Config{}.String())
}

func TestGridValidate(t *testing.T) {
	tests := []struct {
		name    string
		grid    *Grid
		wantErr bool
	}{
		{name: "ok", grid: NewGrid().Add("depth", 1, 2).Add("rate", 0.1)},
		{name: "empty axis", grid: NewGrid().Add("depth"), wantErr: true},
		{name: "duplicate", grid: NewGrid().Add("depth", 1).Add("depth", 2), wantErr: true},
		{name: "unknown", grid: NewGrid().Add("sigma", 1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.grid.Validate(stubFamily{})
			if tt.wantErr {
				var vErr *errors.ValidationError
				assert.True(t, errors.As(err, &vErr), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGridCopiesValues(t *testing.T) {
	values := []float64{1, 2}
	g := NewGrid(Axis{Name: "depth", Values: values})
	values[0] = 99
	assert.Equal(t, 1.0, g.Configs()[0].Float("depth", 0))
}

func TestConfigHelpers(t *testing.T) {
	cfg := Config{{Name: "n_trees", Value: 150}, {Name: "shrinkage", Value: 0.1}}

	assert.Equal(t, "n_trees=150, shrinkage=0.1", cfg.String())
	assert.Equal(t, 150, cfg.Int("n_trees", 0))
	assert.Equal(t, 7, cfg.Int("missing", 7))

	updated := cfg.With("shrinkage", 0.01).With("bag_fraction", 0.5)
	assert.Equal(t, 0.1, cfg.Float("shrinkage", 0), "With must not mutate")
	assert.Equal(t, 0.01, updated.Float("shrinkage", 0))
	assert.Equal(t, 0.5, updated.Float("bag_fraction", 0))

	parsed, err := ParseConfig(cfg.Key())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(cfg))

	_, err = ParseConfig("n_trees")
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(stubFamily{}, Config{{Name: "rate", Value: 1}}))
	assert.Error(t, ValidateConfig(stubFamily{}, Config{{Name: "C", Value: 1}}))
}

func TestRegistry(t *testing.T) {
	Register(stubFamily{})
	f, err := Lookup("stub")
	require.NoError(t, err)
	assert.Equal(t, "stub", f.Name())
	assert.Contains(t, Names(), "stub")
	assert.Panics(t, func() { Register(stubFamily{}) })

	_, err = Lookup("nope")
	assert.Error(t, err)
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	err := s.RequireFitted("Scaler", "Transform", 3)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	s.SetFitted(3, 10)
	assert.NoError(t, s.RequireFitted("Scaler", "Transform", 3))
	var dim *errors.DimensionError
	assert.True(t, errors.As(s.RequireFitted("Scaler", "Transform", 4), &dim))

	s.Reset()
	assert.False(t, s.IsFitted())
}
