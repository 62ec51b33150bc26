package dataset

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

func labelledDataset(t *testing.T, pos, neg int) *Dataset {
	t.Helper()
	n := pos + neg
	x := make([]float64, n)
	labels := make([]string, n)
	for i := range x {
		x[i] = float64(i)
		labels[i] = "neg"
		if i < pos {
			labels[i] = "pos"
		}
	}
	ds, err := New([]Feature{NumericFeature("x", x)}, "y", labels, WithPositiveClass("pos"))
	require.NoError(t, err)
	return ds
}

func TestStratifiedSplitScenario(t *testing.T) {
	ds := labelledDataset(t, 60, 40)
	require.Equal(t, map[string]int{"pos": 60, "neg": 40}, ds.ClassCounts())

	s, err := StratifiedSplit(ds, 0.75, 998)
	require.NoError(t, err)

	assert.Equal(t, 75, s.Train.Len())
	assert.Equal(t, 25, s.Test.Len())
	assert.Equal(t, map[string]int{"pos": 45, "neg": 30}, s.Train.ClassCounts())
	assert.Equal(t, map[string]int{"pos": 15, "neg": 10}, s.Test.ClassCounts())
}

func TestStratifiedSplitPartition(t *testing.T) {
	ds := labelledDataset(t, 37, 23)
	for _, p := range []float64{0.1, 0.5, 0.8, 0.99} {
		s, err := StratifiedSplit(ds, p, 1)
		require.NoError(t, err)

		all := append(s.Train.Indices(), s.Test.Indices()...)
		sort.Ints(all)
		assert.Equal(t, ds.Indices(), all, "p=%v: union must be the whole dataset", p)

		assert.True(t, sort.IntsAreSorted(s.Train.Indices()), "train keeps record order")
		assert.True(t, sort.IntsAreSorted(s.Test.Indices()), "test keeps record order")

		want := p * float64(ds.Len())
		assert.InDelta(t, want, float64(s.Train.Len()), 2, "p=%v", p)
		for lvl, n := range s.Test.ClassCounts() {
			assert.GreaterOrEqual(t, n, 1, "class %s must appear in test", lvl)
		}
	}
}

func TestStratifiedSplitDeterministic(t *testing.T) {
	ds := labelledDataset(t, 30, 30)
	a, err := StratifiedSplit(ds, 0.6, 42)
	require.NoError(t, err)
	b, err := StratifiedSplit(ds, 0.6, 42)
	require.NoError(t, err)
	c, err := StratifiedSplit(ds, 0.6, 43)
	require.NoError(t, err)

	assert.Equal(t, a.TrainRows, b.TrainRows)
	assert.NotEqual(t, a.TrainRows, c.TrainRows)
}

func TestStratifiedSplitErrors(t *testing.T) {
	ds := labelledDataset(t, 10, 10)
	for _, p := range []float64{0, 1, -0.2, 1.5} {
		_, err := StratifiedSplit(ds, p, 1)
		var fe *errors.InvalidFractionError
		assert.True(t, errors.As(err, &fe), "p=%v", p)
	}

	tiny := labelledDataset(t, 1, 10)
	_, err := StratifiedSplit(tiny, 0.5, 1)
	var ie *errors.InsufficientDataError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "pos", ie.Class)
}

func TestStratifiedSplitKeepsOneRecordPerClass(t *testing.T) {
	ds := labelledDataset(t, 2, 2)
	tests := []struct {
		name string
		p    float64
	}{
		{"tiny fraction", 0.1},
		{"large fraction", 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := StratifiedSplit(ds, tt.p, 1)
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"pos": 1, "neg": 1}, s.Train.ClassCounts())
			assert.Equal(t, map[string]int{"pos": 1, "neg": 1}, s.Test.ClassCounts())
		})
	}
}
