// Package pipeline runs a full experiment: split the data, tune every
// configured model on the training part with a shared resampling policy,
// evaluate the selected models on the test part, compare their resampling
// distributions and write plots, a report and the result store.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/tuneflow/config"
	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/dataset"
	"github.com/YuminosukeSato/tuneflow/metrics"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
	"github.com/YuminosukeSato/tuneflow/pkg/log"
	"github.com/YuminosukeSato/tuneflow/report"
	"github.com/YuminosukeSato/tuneflow/report/store"
	ms "github.com/YuminosukeSato/tuneflow/sklearn/model_selection"
	"github.com/YuminosukeSato/tuneflow/visualization"

	// 登録される全ファミリー
	_ "github.com/YuminosukeSato/tuneflow/sklearn/ensemble"
	_ "github.com/YuminosukeSato/tuneflow/sklearn/linear_model"
	_ "github.com/YuminosukeSato/tuneflow/sklearn/svm"
)

// ModelResult is one tuned model and its test-set evaluation.
type ModelResult struct {
	Name       string
	Fitted     *ms.FittedModel
	Prediction *ms.PredictionResult
	Confusion  *metrics.ConfusionMatrix
	ROC        *metrics.ROC
}

// Result is everything a run produced.
type Result struct {
	RunID       uuid.UUID
	Split       *dataset.Split
	Control     ms.Control
	Models      []ModelResult
	Comparisons []*ms.Comparison
	// Files lists every file written, in order.
	Files []string
}

// Model returns the result of the named model.
func (r *Result) Model(name string) (ModelResult, bool) {
	for _, m := range r.Models {
		if m.Name == name {
			return m, true
		}
	}
	return ModelResult{}, false
}

// Distributions returns the selected configuration's resamples per model.
func (r *Result) Distributions() []*ms.ResampleDistribution {
	out := make([]*ms.ResampleDistribution, len(r.Models))
	for i, m := range r.Models {
		out[i] = m.Fitted.Results().BestDistribution()
	}
	return out
}

// LoadData reads the configured data source.
func LoadData(cfg *config.Config) (*dataset.Dataset, error) {
	d := cfg.Data
	opts := dataset.ReadOptions{Positive: d.Positive, Categorical: d.Categorical, Drop: d.Drop}
	switch d.Source {
	case "synthetic":
		return dataset.Synthetic(d.Records, d.PositiveFraction, cfg.Seed)
	case "csv":
		f, err := os.Open(d.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", d.Path)
		}
		defer f.Close()
		return dataset.ReadCSV(f, d.Label, opts)
	case "xlsx":
		return dataset.ReadXLSX(d.Path, d.Sheet, d.Label, opts)
	}
	return nil, errors.NewValidationError("data.source", "must be synthetic, csv or xlsx", d.Source)
}

// Run executes the experiment cfg on ds.
func Run(ctx context.Context, cfg *config.Config, ds *dataset.Dataset) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	res := &Result{RunID: uuid.New(), Control: cfg.ControlPolicy()}
	logger := log.GetLoggerWithName("pipeline").With(log.RunIDKey, res.RunID.String())
	start := time.Now()

	split, err := dataset.StratifiedSplit(ds, cfg.Split.TrainFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}
	res.Split = split
	logger.Info("data split",
		log.OperationKey, log.OperationSplit,
		log.SamplesKey, ds.Len(),
		"train", split.Train.Len(),
		"test", split.Test.Len(),
		log.ClassesKey, ds.ClassCounts(),
	)

	for _, mc := range cfg.Models {
		mr, err := runModel(ctx, mc, split, res.Control, logger)
		if err != nil {
			return nil, err
		}
		res.Models = append(res.Models, mr)
	}

	if len(res.Models) > 1 {
		res.Comparisons, err = ms.CompareAll(res.Distributions(), ms.WithConfidence(cfg.Compare.Confidence))
		if err != nil {
			return nil, err
		}
		logger.Info("models compared", log.OperationKey, log.OperationCompare, "pairs", len(res.Comparisons))
	}

	if err := writeOutputs(ctx, cfg, res, logger); err != nil {
		return nil, err
	}
	logger.Info("run finished", log.DurationMsKey, time.Since(start).Milliseconds())
	return res, nil
}

func runModel(ctx context.Context, mc config.ModelConfig, split *dataset.Split, control ms.Control, logger log.Logger) (ModelResult, error) {
	fam, err := model.Lookup(mc.Family)
	if err != nil {
		return ModelResult{}, err
	}
	opts := []ms.TrainOption{
		ms.WithName(mc.Label()),
		ms.WithLogger(logger),
	}
	if mc.TuneLength > 0 {
		opts = append(opts, ms.WithTuneLength(mc.TuneLength))
	}
	if g := mc.Grid.ModelGrid(); g != nil {
		opts = append(opts, ms.WithGrid(g))
	}
	if mc.Metric != "" {
		opts = append(opts, ms.WithMetric(mc.Metric))
	}
	fitted, err := ms.Train(ctx, split.Train, fam, control, opts...)
	if err != nil {
		return ModelResult{}, err
	}

	pred, err := fitted.Predict(split.Test)
	if err != nil {
		return ModelResult{}, err
	}
	positive := split.Test.Positive()
	cm, err := metrics.NewConfusionMatrix(pred.Labels, split.Test.Labels(), positive)
	if err != nil {
		return ModelResult{}, err
	}
	roc, err := metrics.ROCCurve(split.Test.Labels(), pred.Positive, positive)
	if err != nil {
		return ModelResult{}, err
	}
	logger.Info("test set evaluated",
		log.ModelNameKey, mc.Label(),
		log.OperationKey, log.OperationEvaluate,
		log.PhaseKey, log.PhaseTesting,
		log.ConfigKey, fitted.Config().String(),
		"accuracy", cm.Accuracy(),
		"auc", roc.AUC,
	)
	return ModelResult{Name: mc.Label(), Fitted: fitted, Prediction: pred, Confusion: cm, ROC: roc}, nil
}

func writeOutputs(ctx context.Context, cfg *config.Config, res *Result, logger log.Logger) error {
	out := cfg.Output
	if !out.Plots && !out.Report && out.Store == "" {
		return nil
	}
	if err := os.MkdirAll(out.Dir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	var plots []string
	if out.Plots {
		var err error
		plots, err = writePlots(cfg, res)
		if err != nil {
			return err
		}
		res.Files = append(res.Files, plots...)
	}
	if out.Report {
		md, html, err := buildReport(cfg, res, plots).WriteFiles(out.Dir, "report")
		if err != nil {
			return err
		}
		res.Files = append(res.Files, md, html)
	}
	if out.Store != "" {
		if err := saveRun(ctx, cfg, res); err != nil {
			return err
		}
		logger.Info("run stored", "store", out.Store)
	}
	return nil
}

func writePlots(cfg *config.Config, res *Result) ([]string, error) {
	dir, ext, opts := cfg.Output.Dir, "."+cfg.Output.Plot.Format, cfg.SaveOptions()
	var files []string

	curves := make([]visualization.NamedROC, len(res.Models))
	for i, m := range res.Models {
		curves[i] = visualization.NamedROC{Name: m.Name, ROC: m.ROC}
	}
	path := filepath.Join(dir, "roc"+ext)
	if err := visualization.PlotROC(path, curves, opts); err != nil {
		return nil, err
	}
	files = append(files, path)

	dists := res.Distributions()
	for _, metric := range visualization.Metrics(dists) {
		path := filepath.Join(dir, "resamples_"+strings.ToLower(metric)+ext)
		if err := visualization.PlotResamples(path, dists, metric, opts); err != nil {
			return nil, err
		}
		files = append(files, path)
		if len(res.Comparisons) > 0 {
			path := filepath.Join(dir, "differences_"+strings.ToLower(metric)+ext)
			if err := visualization.PlotDifferences(path, res.Comparisons, metric, opts); err != nil {
				continue
			}
			files = append(files, path)
		}
	}

	for _, m := range res.Models {
		tr := m.Fitted.Results()
		if len(tr.Rows) < 2 {
			continue
		}
		// 値が複数ある最初のパラメータを横軸にする
		axis := ""
		for _, p := range tr.Rows[0].Config {
			if varies(tr, p.Name) {
				axis = p.Name
				break
			}
		}
		if axis == "" {
			continue
		}
		path := filepath.Join(dir, "profile_"+m.Name+ext)
		if err := visualization.PlotTuningProfile(path, tr, axis, opts); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

func varies(tr *ms.TuningResult, name string) bool {
	first, _ := tr.Rows[0].Config.Lookup(name)
	for _, row := range tr.Rows[1:] {
		if v, _ := row.Config.Lookup(name); v != first {
			return true
		}
	}
	return false
}

func buildReport(cfg *config.Config, res *Result, plots []string) *report.Builder {
	c := res.Control
	b := report.New(cfg.Name).Paragraph(fmt.Sprintf(
		"Run %s. Resampling: %s, %d cycles per configuration, %s summary, %s selection. Training records: %d, test records: %d.",
		res.RunID, c.Method, c.Cycles(), c.Summary, c.Selection, res.Split.Train.Len(), res.Split.Test.Len()))

	b.Section("Tuning")
	for _, m := range res.Models {
		b.Tuning(m.Fitted.Results())
	}

	b.Section("Test set")
	names := make([]string, len(res.Models))
	curves := make([]*metrics.ROC, len(res.Models))
	for i, m := range res.Models {
		b.Confusion(m.Name, m.Confusion)
		names[i], curves[i] = m.Name, m.ROC
	}
	b.ROC(names, curves)

	b.Section("Resamples").Resamples(res.Distributions())
	if len(res.Comparisons) > 0 {
		b.Section("Comparison").Comparisons(res.Comparisons)
	}
	if len(plots) > 0 {
		b.Section("Plots")
		for _, p := range plots {
			rel, err := filepath.Rel(cfg.Output.Dir, p)
			if err != nil {
				rel = p
			}
			b.Image(strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)), rel)
		}
	}
	return b
}

func saveRun(ctx context.Context, cfg *config.Config, res *Result) error {
	dsn := cfg.Output.Store
	if dsn != ":memory:" && !filepath.IsAbs(dsn) {
		dsn = filepath.Join(cfg.Output.Dir, dsn)
	}
	s, err := store.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer s.Close()

	run := &store.Run{ID: res.RunID, Name: cfg.Name, Control: res.Control}
	for _, m := range res.Models {
		eval := map[string]float64{"AUC": m.ROC.AUC}
		for _, f := range m.Confusion.Stats().Fields() {
			eval[f.Name] = f.Value
		}
		run.Models = append(run.Models, store.ModelRun{Result: m.Fitted.Results(), Evaluation: eval})
	}
	_, err = s.SaveRun(ctx, run)
	return err
}
