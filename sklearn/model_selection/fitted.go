package model_selection

import (
	"slices"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/dataset"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// FittedModel is the selected configuration refit on the full training
// set. It is immutable and safe for concurrent Predict calls.
type FittedModel struct {
	name       string
	family     model.Family
	config     model.Config
	classifier model.Classifier
	schema     dataset.Schema
	designCols []string
	nTrain     int
	results    *TuningResult
}

// Name is the model label given to Train.
func (m *FittedModel) Name() string { return m.name }

// Family returns the model family.
func (m *FittedModel) Family() model.Family { return m.family }

// Config returns the selected configuration.
func (m *FittedModel) Config() model.Config { return slices.Clone(m.config) }

// Classifier returns the refit classifier.
func (m *FittedModel) Classifier() model.Classifier { return m.classifier }

// Schema returns the feature schema the model was trained on.
func (m *FittedModel) Schema() dataset.Schema { return m.schema }

// Levels returns the label levels, positive first.
func (m *FittedModel) Levels() [2]string { return m.schema.Levels }

// TrainingSize is the number of records in the refit.
func (m *FittedModel) TrainingSize() int { return m.nTrain }

// Results returns the tuning result.
func (m *FittedModel) Results() *TuningResult { return m.results }

// FeatureImportance returns importances by design column name when the
// classifier ranks its inputs.
func (m *FittedModel) FeatureImportance() (map[string]float64, bool) {
	fi, ok := m.classifier.(model.FeatureImportancer)
	if !ok {
		return nil, false
	}
	imp := fi.FeatureImportance()
	if len(imp) != len(m.designCols) {
		return nil, false
	}
	out := make(map[string]float64, len(imp))
	for i, name := range m.designCols {
		out[name] = imp[i]
	}
	return out, true
}

// PredictionResult holds class predictions for a dataset.
type PredictionResult struct {
	// Levels orders the columns of Probabilities, positive first.
	Levels [2]string
	Labels []string
	// Probabilities rows sum to 1.
	Probabilities [][2]float64
	// Positive is Probabilities[i][0].
	Positive []float64
	// Index is the source record index of each row.
	Index []int
}

// Codes returns 1 where the predicted label is positive.
func (p *PredictionResult) Codes() []int {
	out := make([]int, len(p.Labels))
	for i, l := range p.Labels {
		if l == p.Levels[0] {
			out[i] = 1
		}
	}
	return out
}

// Predict classifies every record of ds. Labels in ds are ignored; its
// features must follow the training schema. A record is positive when its
// positive-class probability is at least 0.5.
func (m *FittedModel) Predict(ds *dataset.Dataset) (*PredictionResult, error) {
	if err := m.schema.Compatible(ds); err != nil {
		return nil, err
	}
	probs, err := m.classifier.PredictProba(ds.Design())
	if err != nil {
		return nil, errors.NewModelError("FittedModel.Predict", "prediction", err)
	}
	if len(probs) != ds.Len() {
		return nil, errors.NewDimensionError("FittedModel.Predict", ds.Len(), len(probs), 0)
	}
	out := &PredictionResult{
		Levels:        m.schema.Levels,
		Labels:        make([]string, len(probs)),
		Probabilities: make([][2]float64, len(probs)),
		Positive:      make([]float64, len(probs)),
		Index:         ds.Indices(),
	}
	for i, p := range probs {
		p = errors.ClipValue(p, 0, 1)
		out.Positive[i] = p
		out.Probabilities[i] = [2]float64{p, 1 - p}
		if p >= 0.5 {
			out.Labels[i] = m.schema.Levels[0]
		} else {
			out.Labels[i] = m.schema.Levels[1]
		}
	}
	return out, nil
}
