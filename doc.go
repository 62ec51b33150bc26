// Package tuneflow tunes, evaluates and compares binary classifiers on
// tabular data, following the workflow of R's caret package.
//
// A run splits a labelled dataset into stratified training and test parts,
// tunes each model family over a hyperparameter grid with repeated k-fold
// cross-validation (or the bootstrap), refits the winning configuration on
// the full training part, and evaluates it on the test part with a
// confusion matrix and a ROC curve. Because every model is trained with the
// same resampling policy, their per-resample performance pairs up and can
// be compared with paired t-tests.
//
// # Quick Start
//
//	ds, err := dataset.Synthetic(200, 0.3, 1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	split, err := dataset.StratifiedSplit(ds, 0.75, 1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	gbm, _ := model.Lookup("gbm")
//	control := model_selection.NewControl(
//	    model_selection.WithNumber(10),
//	    model_selection.WithRepeats(3),
//	    model_selection.WithSummary(model_selection.TwoClassSummary),
//	)
//	fitted, err := model_selection.Train(ctx, split.Train, gbm, control)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pred, err := fitted.Predict(split.Test)
//
// # Packages
//
//   - dataset: labelled records, CSV/XLSX readers, stratified split
//   - sklearn/ensemble: gradient boosted trees ("gbm")
//   - sklearn/svm: support vector machines ("svmRadial", "svmLinear")
//   - sklearn/linear_model: penalised logistic regression ("glmnet")
//   - sklearn/model_selection: resampling, grid search, prediction, comparison
//   - metrics: confusion matrix statistics, ROC/AUC, paired t-test
//   - preprocessing: feature standardisation
//   - visualization: ROC, resample, difference and tuning plots
//   - report, report/store: Markdown/HTML reports and the SQLite result store
//   - config, pipeline, cmd/tuneflow: experiment files, the workflow and the CLI
//   - core/model, core/parallel: family interface and grids, worker pools
//   - pkg/errors, pkg/log: error types and structured logging
package tuneflow
