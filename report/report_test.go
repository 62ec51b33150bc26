package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/metrics"
	ms "github.com/YuminosukeSato/tuneflow/sklearn/model_selection"
)

func sampleDist(name string, acc ...float64) *ms.ResampleDistribution {
	d := &ms.ResampleDistribution{Model: name, Metrics: []string{ms.MetricAccuracy}}
	for i, a := range acc {
		d.Resamples = append(d.Resamples, ms.ResampleValue{Repeat: 1, Fold: i + 1, Metrics: map[string]float64{ms.MetricAccuracy: a}})
	}
	return d
}

func TestBuilderSections(t *testing.T) {
	a := sampleDist("gbm", 0.90, 0.92, 0.91)
	b := sampleDist("svmRadial", 0.80, 0.85, 0.82)
	res := &ms.TuningResult{
		Model:    "gbm",
		Metric:   ms.MetricAccuracy,
		Maximize: true,
		Rows: []ms.TuningRow{
			{Config: model.Config{{Name: "n_trees", Value: 50}}, Means: map[string]float64{ms.MetricAccuracy: 0.88}, SDs: map[string]float64{ms.MetricAccuracy: 0.02}},
			{Config: model.Config{{Name: "n_trees", Value: 100}}, Failed: true},
			{Config: model.Config{{Name: "n_trees", Value: 150}}, Means: map[string]float64{ms.MetricAccuracy: 0.91}, SDs: map[string]float64{ms.MetricAccuracy: 0.01}},
		},
		Best:          2,
		Distributions: []*ms.ResampleDistribution{a, nil, a},
	}
	cm, err := metrics.NewConfusionMatrix([]string{"a", "a", "b", "b"}, []string{"a", "b", "b", "b"}, "a")
	require.NoError(t, err)
	roc, err := metrics.ROCFromCodes([]int{1, 0, 1, 0}, []float64{0.9, 0.2, 0.7, 0.4})
	require.NoError(t, err)
	cmps, err := ms.CompareAll([]*ms.ResampleDistribution{a, b})
	require.NoError(t, err)

	rep := New("Experiment").
		Section("Tuning").Tuning(res).
		Section("Test set").Confusion("gbm", cm).ROC([]string{"gbm"}, []*metrics.ROC{roc}).
		Section("Resamples").Resamples([]*ms.ResampleDistribution{a, b}).
		Section("Comparison").Comparisons(cmps).
		Image("roc", "roc.png")

	md := rep.Markdown()
	assert.True(t, strings.HasPrefix(md, "# Experiment\n"))
	assert.Contains(t, md, "| * | n_trees=150 | 0.9100 | 0.0100 |")
	assert.Contains(t, md, "| failed |")
	assert.Contains(t, md, "Selected: **n_trees=150**")
	assert.Contains(t, md, "| Accuracy | 0.7500 |")
	assert.Contains(t, md, "'Positive' class: a")
	assert.Contains(t, md, "| gbm | 1.0000 |")
	assert.Contains(t, md, "| gbm - svmRadial | Accuracy | 0.0867 |")
	assert.Contains(t, md, "![roc](roc.png)")

	html := string(rep.HTML())
	assert.Contains(t, html, "<title>Experiment</title>")
	assert.Contains(t, html, "<table>")
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	md, html, err := New("Run").Paragraph("nothing to report").WriteFiles(dir, "report")
	require.NoError(t, err)

	data, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(data), "nothing to report")
	data, err = os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<p>nothing to report</p>")
}
