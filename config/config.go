// Package config loads experiment files: where the data comes from, how it
// is split and resampled, which model families are tuned and what is
// written out.
package config

import (
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/tuneflow/core/model"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
	ms "github.com/YuminosukeSato/tuneflow/sklearn/model_selection"
	"github.com/YuminosukeSato/tuneflow/visualization"
)

// Environment overrides, applied after the file.
const (
	EnvLogLevel  = "TUNEFLOW_LOG_LEVEL"
	EnvWorkers   = "TUNEFLOW_WORKERS"
	EnvOutputDir = "TUNEFLOW_OUTPUT_DIR"
	EnvSeed      = "TUNEFLOW_SEED"
)

// Config is one experiment.
type Config struct {
	Name     string        `yaml:"name"`
	Seed     uint64        `yaml:"seed"`
	LogLevel string        `yaml:"log_level"`
	Data     DataConfig    `yaml:"data"`
	Split    SplitConfig   `yaml:"split"`
	Control  ControlConfig `yaml:"control"`
	Models   []ModelConfig `yaml:"models"`
	Compare  CompareConfig `yaml:"compare"`
	Output   OutputConfig  `yaml:"output"`
}

// DataConfig locates the records.
type DataConfig struct {
	Source      string   `yaml:"source"` // synthetic, csv or xlsx
	Path        string   `yaml:"path"`
	Sheet       string   `yaml:"sheet"`
	Label       string   `yaml:"label"`
	Positive    string   `yaml:"positive"`
	Categorical []string `yaml:"categorical"`
	Drop        []string `yaml:"drop"`
	// Records and PositiveFraction size the synthetic source.
	Records          int     `yaml:"records"`
	PositiveFraction float64 `yaml:"positive_fraction"`
}

// SplitConfig is the stratified train/test split.
type SplitConfig struct {
	TrainFraction float64 `yaml:"train_fraction"`
}

// ControlConfig mirrors model_selection.Control; the seed is the
// experiment seed.
type ControlConfig struct {
	Method    string `yaml:"method"`
	Number    int    `yaml:"number"`
	Repeats   int    `yaml:"repeats"`
	Summary   string `yaml:"summary"`
	Selection string `yaml:"selection"`
	Workers   int    `yaml:"workers"`
}

// ModelConfig is one family to tune. An empty grid uses the family
// default grid of TuneLength values per axis.
type ModelConfig struct {
	Family     string `yaml:"family"`
	Name       string `yaml:"name"`
	Metric     string `yaml:"metric"`
	TuneLength int    `yaml:"tune_length"`
	Grid       Grid   `yaml:"grid"`
}

// Label is the model name, the family name when unset.
func (m ModelConfig) Label() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Family
}

// CompareConfig configures model comparison.
type CompareConfig struct {
	Confidence float64 `yaml:"confidence"`
}

// OutputConfig selects what a run writes.
type OutputConfig struct {
	Dir    string     `yaml:"dir"`
	Plots  bool       `yaml:"plots"`
	Plot   PlotConfig `yaml:"plot"`
	Report bool       `yaml:"report"`
	Store  string     `yaml:"store"` // SQLite DSN; empty disables
}

// PlotConfig is the size of saved plots.
type PlotConfig struct {
	Format string  `yaml:"format"` // file extension
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Unit   string  `yaml:"unit"`
	DPI    int     `yaml:"dpi"`
}

// Grid is an ordered mapping of parameter name to candidate values. Axis
// order is kept from the file because it fixes enumeration order.
type Grid []model.Axis

// UnmarshalYAML reads a mapping whose values are a number or a list of numbers.
func (g *Grid) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.NewValidationError("grid", "must be a mapping", node.Tag)
	}
	out := Grid{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var values []float64
		switch val.Kind {
		case yaml.ScalarNode:
			var v float64
			if err := val.Decode(&v); err != nil {
				return errors.Wrapf(err, "grid %s", key.Value)
			}
			values = []float64{v}
		case yaml.SequenceNode:
			if err := val.Decode(&values); err != nil {
				return errors.Wrapf(err, "grid %s", key.Value)
			}
		default:
			return errors.NewValidationError(key.Value, "grid values must be a number or a list", val.Tag)
		}
		out = append(out, model.Axis{Name: key.Value, Values: values})
	}
	*g = out
	return nil
}

// ModelGrid returns the grid, nil when none is configured.
func (g Grid) ModelGrid() *model.Grid {
	if len(g) == 0 {
		return nil
	}
	return model.NewGrid(g...)
}

// Default returns a small synthetic two-model experiment.
func Default() *Config {
	return &Config{
		Name:     "tuneflow",
		Seed:     1,
		LogLevel: "info",
		Data: DataConfig{
			Source:           "synthetic",
			Label:            "Class",
			Records:          200,
			PositiveFraction: 0.3,
		},
		Split: SplitConfig{TrainFraction: 0.75},
		Control: ControlConfig{
			Method:    string(ms.MethodRepeatedCV),
			Number:    10,
			Repeats:   3,
			Summary:   string(ms.TwoClassSummary),
			Selection: string(ms.SelectBest),
		},
		Models: []ModelConfig{
			{Family: "gbm", TuneLength: ms.DefaultTuneLength},
			{Family: "svmRadial", TuneLength: ms.DefaultTuneLength},
		},
		Compare: CompareConfig{Confidence: ms.DefaultConfidence},
		Output: OutputConfig{
			Dir:  "tuneflow-out",
			Plot: PlotConfig{Format: "png", Width: 7, Height: 5, Unit: "in", DPI: 150},
		},
	}
}

// Load reads path over Default, loads .env when present and applies the
// TUNEFLOW_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := LoadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, cfg.Validate()
}

// LoadEnv loads the given dotenv files (".env" when none) that exist.
// Variables already set in the environment win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "load %s", f)
		}
	}
	return nil
}

// ApplyEnv applies the TUNEFLOW_* overrides.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidationError(EnvWorkers, "must be an integer", v)
		}
		c.Control.Workers = n
	}
	if v := os.Getenv(EnvSeed); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.NewValidationError(EnvSeed, "must be a non-negative integer", v)
		}
		c.Seed = n
	}
	return nil
}

func applyDefaults(c *Config) {
	for i := range c.Models {
		if c.Models[i].TuneLength <= 0 {
			c.Models[i].TuneLength = ms.DefaultTuneLength
		}
	}
	if c.Compare.Confidence == 0 {
		c.Compare.Confidence = ms.DefaultConfidence
	}
	if c.Output.Plot.Format == "" {
		c.Output.Plot.Format = "png"
	}
}

// ControlPolicy builds the resampling policy.
func (c *Config) ControlPolicy() ms.Control {
	return ms.NewControl(
		ms.WithMethod(ms.Method(c.Control.Method)),
		ms.WithNumber(c.Control.Number),
		ms.WithRepeats(c.Control.Repeats),
		ms.WithSummary(ms.Summary(c.Control.Summary)),
		ms.WithSelection(ms.Selection(c.Control.Selection)),
		ms.WithSeed(c.Seed),
		ms.WithWorkers(c.Control.Workers),
	)
}

// SaveOptions returns the plot size options.
func (c *Config) SaveOptions() visualization.SaveOptions {
	p := c.Output.Plot
	return visualization.SaveOptions{Width: p.Width, Height: p.Height, Unit: p.Unit, DPI: p.DPI}
}

// Validate checks the experiment. Family names are resolved against the
// model registry, so the families must be linked in.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "synthetic":
		if c.Data.Records < 4 {
			return errors.NewValidationError("data.records", "synthetic data needs at least 4 records", c.Data.Records)
		}
		if !(c.Data.PositiveFraction > 0 && c.Data.PositiveFraction < 1) {
			return errors.NewInvalidFractionError(c.Data.PositiveFraction)
		}
	case "csv", "xlsx":
		if c.Data.Path == "" {
			return errors.NewValidationError("data.path", "required for "+c.Data.Source, c.Data.Path)
		}
		if c.Data.Label == "" {
			return errors.NewValidationError("data.label", "required", c.Data.Label)
		}
	default:
		return errors.NewValidationError("data.source", "must be synthetic, csv or xlsx", c.Data.Source)
	}
	if !(c.Split.TrainFraction > 0 && c.Split.TrainFraction < 1) {
		return errors.NewInvalidFractionError(c.Split.TrainFraction)
	}
	control := c.ControlPolicy()
	if err := control.Validate(); err != nil {
		return err
	}
	if len(c.Models) == 0 {
		return errors.NewValidationError("models", "at least one model is required", 0)
	}
	seen := make(map[string]bool)
	for _, m := range c.Models {
		fam, err := model.Lookup(m.Family)
		if err != nil {
			return err
		}
		if seen[m.Label()] {
			return errors.NewValidationError("models", "duplicate model name", m.Label())
		}
		seen[m.Label()] = true
		if err := m.Grid.ModelGrid().Validate(fam); err != nil {
			return err
		}
		if m.Metric != "" && !slices.Contains(control.Summary.Metrics(), m.Metric) {
			return errors.NewValidationError("metric", "not computed by summary "+c.Control.Summary, m.Metric)
		}
	}
	if !(c.Compare.Confidence > 0 && c.Compare.Confidence < 1) {
		return errors.NewValidationError("compare.confidence", "must be in (0, 1)", c.Compare.Confidence)
	}
	if c.Output.Plots {
		if err := c.SaveOptions().Validate(); err != nil {
			return err
		}
	}
	return nil
}
