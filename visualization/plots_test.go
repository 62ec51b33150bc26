package visualization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/metrics"
	ms "github.com/YuminosukeSato/tuneflow/sklearn/model_selection"
)

func requireFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func sampleROC(t *testing.T) *metrics.ROC {
	t.Helper()
	roc, err := metrics.ROCFromCodes([]int{1, 1, 0, 1, 0, 0}, []float64{0.9, 0.8, 0.7, 0.6, 0.3, 0.1})
	require.NoError(t, err)
	return roc
}

func dist(name string, vals ...float64) *ms.ResampleDistribution {
	d := &ms.ResampleDistribution{Model: name, Metrics: []string{ms.MetricAccuracy}}
	for i, v := range vals {
		d.Resamples = append(d.Resamples, ms.ResampleValue{Repeat: 1, Fold: i + 1, Metrics: map[string]float64{ms.MetricAccuracy: v}})
	}
	return d
}

func TestPlotROC(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"roc.png", "roc.svg", "roc.pdf"} {
		path := filepath.Join(dir, name)
		require.NoError(t, PlotROC(path, []NamedROC{{Name: "gbm", ROC: sampleROC(t)}}, DefaultSaveOptions()))
		requireFile(t, path)
	}
	assert.Error(t, PlotROC(filepath.Join(dir, "none.png"), nil, DefaultSaveOptions()))
}

func TestPlotResamplesAndDifferences(t *testing.T) {
	dir := t.TempDir()
	a := dist("gbm", 0.90, 0.92, 0.91, 0.93, 0.90)
	b := dist("svmRadial", 0.80, 0.81, 0.83, 0.80, 0.82)

	path := filepath.Join(dir, "nested", "box.png")
	require.NoError(t, PlotResamples(path, []*ms.ResampleDistribution{a, b}, ms.MetricAccuracy, DefaultSaveOptions()))
	requireFile(t, path)

	cmps, err := ms.CompareAll([]*ms.ResampleDistribution{a, b})
	require.NoError(t, err)
	path = filepath.Join(dir, "diff.svg")
	require.NoError(t, PlotDifferences(path, cmps, ms.MetricAccuracy, DefaultSaveOptions()))
	requireFile(t, path)

	assert.Error(t, PlotDifferences(path, cmps, ms.MetricROC, DefaultSaveOptions()))
	assert.Error(t, PlotResamples(path, []*ms.ResampleDistribution{a}, ms.MetricROC, DefaultSaveOptions()))
	assert.Equal(t, []string{ms.MetricAccuracy}, Metrics([]*ms.ResampleDistribution{a, b}))
}

func TestPlotTuningProfile(t *testing.T) {
	res := &ms.TuningResult{Model: "gbm", Metric: ms.MetricAccuracy, Maximize: true}
	for _, depth := range []float64{1, 2} {
		for _, trees := range []float64{50, 100, 150} {
			res.Rows = append(res.Rows, ms.TuningRow{
				Config: model.Config{{Name: "interaction_depth", Value: depth}, {Name: "n_trees", Value: trees}},
				Means:  map[string]float64{ms.MetricAccuracy: 0.7 + depth*0.05 + trees/1000},
			})
		}
	}
	path := filepath.Join(t.TempDir(), "profile.png")
	require.NoError(t, PlotTuningProfile(path, res, "n_trees", DefaultSaveOptions()))
	requireFile(t, path)

	assert.Error(t, PlotTuningProfile(path, res, "shrinkage", DefaultSaveOptions()))
}

func TestSaveOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    SaveOptions
		wantErr bool
	}{
		{"default", DefaultSaveOptions(), false},
		{"pixels", SaveOptions{Width: 800, Height: 600, Unit: "px", DPI: 100}, false},
		{"centimetres", SaveOptions{Width: 15, Height: 10, Unit: "cm", DPI: 300}, false},
		{"unknown unit", SaveOptions{Width: 1, Height: 1, Unit: "pt", DPI: 72}, true},
		{"zero width", SaveOptions{Height: 1, Unit: "in", DPI: 72}, true},
		{"zero dpi", SaveOptions{Width: 1, Height: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	err := PlotROC(filepath.Join(t.TempDir(), "roc.bmp"), []NamedROC{{Name: "x", ROC: sampleROC(t)}}, DefaultSaveOptions())
	assert.Error(t, err)
}
