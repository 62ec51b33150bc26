// Package log defines standard attribute keys for tuneflow runs.
//
// Keys follow a hierarchical naming convention ("model.name", "cv.fold") so
// that JSON log lines from grid searches can be filtered and aggregated.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the model family. Examples: "gbm", "svmRadial"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the workflow.
	PhaseKey = "ml.phase"

	// RunIDKey identifies one pipeline run (a UUID).
	RunIDKey = "run.id"
)

// Data Shape
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"
)

// Resampling and tuning
const (
	// ConfigKey is the textual form of a hyperparameter configuration.
	ConfigKey = "tuning.config"

	// CandidatesKey is the number of grid points.
	CandidatesKey = "tuning.candidates"

	// RepeatKey and FoldKey locate one resampling cycle (1-based).
	RepeatKey = "cv.repeat"
	FoldKey   = "cv.fold"

	// CyclesKey is the number of fit/evaluate cycles per configuration.
	CyclesKey = "cv.cycles"

	// RandomSeedKey records the seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Metrics and timing
const (
	MetricNameKey  = "metrics.name"
	MetricValueKey = "metrics.value"
	DurationMsKey  = "perf.duration_ms"
	IterationKey   = "training.iteration"
)

// Error and Warning Context
const (
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationFit      = "fit"
	OperationPredict  = "predict"
	OperationSplit    = "split"
	OperationTrain    = "train"
	OperationEvaluate = "evaluate"
	OperationCompare  = "compare"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseTesting    = "testing"
)
