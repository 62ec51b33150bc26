// Package dataset holds labelled tabular data for binary classification:
// named numeric or categorical feature columns plus one two-level label.
package dataset

import (
	"slices"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// Kind is the type of a feature column.
type Kind int

const (
	// Numeric columns hold float64 values.
	Numeric Kind = iota
	// Categorical columns hold string levels, one-hot encoded by Design.
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Feature is one column.
type Feature struct {
	Name   string
	Kind   Kind
	Num    []float64 // Numeric values, len == records
	Cat    []string  // Categorical values, len == records
	Levels []string  // Categorical level set; derived sorted when empty
}

// NumericFeature builds a numeric column.
func NumericFeature(name string, values []float64) Feature {
	return Feature{Name: name, Kind: Numeric, Num: values}
}

// CategoricalFeature builds a categorical column.
func CategoricalFeature(name string, values []string) Feature {
	return Feature{Name: name, Kind: Categorical, Cat: values}
}

func (f Feature) len() int {
	if f.Kind == Categorical {
		return len(f.Cat)
	}
	return len(f.Num)
}

// Dataset is an ordered, immutable set of labelled records. Subsets share
// the parent's schema (feature kinds, categorical levels, label levels) so
// training and test data always encode identically.
type Dataset struct {
	features  []Feature
	labelName string
	labels    []string
	levels    [2]string // levels[0] is the positive (event) class
	index     []int     // original record index of each row
	n         int
}

// Option configures New.
type Option func(*options)

type options struct {
	positive string
}

// WithPositiveClass chooses which label level is the positive (event)
// class. By default the first level in sorted order is positive.
func WithPositiveClass(level string) Option {
	return func(o *options) { o.positive = level }
}

// New validates and builds a Dataset. The label column must contain
// exactly two distinct values.
func New(features []Feature, labelName string, labels []string, opts ...Option) (*Dataset, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	n := len(labels)
	if n == 0 {
		return nil, errors.NewModelError("dataset.New", "empty data", errors.ErrEmptyData)
	}

	seen := make(map[string]bool)
	for i, f := range features {
		if f.Name == "" {
			return nil, errors.NewValidationError("features", "feature name must not be empty", i)
		}
		if seen[f.Name] || f.Name == labelName {
			return nil, errors.NewValidationError("features", "duplicate column name", f.Name)
		}
		seen[f.Name] = true
		if f.len() != n {
			return nil, errors.NewDimensionError("dataset.New("+f.Name+")", n, f.len(), 0)
		}
	}

	distinct := distinctSorted(labels)
	if len(distinct) != 2 {
		return nil, errors.NewValidationError(labelName, "label must have exactly two distinct values", distinct)
	}
	levels := [2]string{distinct[0], distinct[1]}
	if o.positive != "" {
		switch o.positive {
		case levels[0]:
		case levels[1]:
			levels[0], levels[1] = levels[1], levels[0]
		default:
			return nil, errors.NewValidationError("positive", "positive class is not a label level", o.positive)
		}
	}

	cols := make([]Feature, len(features))
	for i, f := range features {
		c := Feature{Name: f.Name, Kind: f.Kind}
		if f.Kind == Categorical {
			c.Cat = slices.Clone(f.Cat)
			c.Levels = slices.Clone(f.Levels)
			if len(c.Levels) == 0 {
				c.Levels = distinctSorted(c.Cat)
			}
			for _, v := range c.Cat {
				if !slices.Contains(c.Levels, v) {
					return nil, errors.NewValidationError(f.Name, "value is not a declared level", v)
				}
			}
		} else {
			c.Num = slices.Clone(f.Num)
		}
		cols[i] = c
	}

	index := make([]int, n)
	for i := range index {
		index[i] = i
	}

	return &Dataset{
		features:  cols,
		labelName: labelName,
		labels:    slices.Clone(labels),
		levels:    levels,
		index:     index,
		n:         n,
	}, nil
}

// NewUnlabeled builds a dataset without labels that follows schema s, for
// prediction on new records. Categorical values must be schema levels.
func NewUnlabeled(s Schema, features []Feature) (*Dataset, error) {
	if len(features) != len(s.Features) {
		return nil, errors.NewDimensionError("dataset.NewUnlabeled", len(s.Features), len(features), 1)
	}
	n := -1
	cols := make([]Feature, len(features))
	for i, f := range features {
		fs := s.Features[i]
		if f.Name != fs.Name || f.Kind != fs.Kind {
			return nil, errors.NewValidationError(f.Name, "feature does not match the training schema", fs.Name)
		}
		if n == -1 {
			n = f.len()
		} else if f.len() != n {
			return nil, errors.NewDimensionError("dataset.NewUnlabeled("+f.Name+")", n, f.len(), 0)
		}
		c := Feature{Name: f.Name, Kind: f.Kind, Levels: slices.Clone(fs.Levels)}
		if f.Kind == Categorical {
			for _, v := range f.Cat {
				if !slices.Contains(c.Levels, v) {
					return nil, errors.NewValidationError(f.Name, "value is not a declared level", v)
				}
			}
			c.Cat = slices.Clone(f.Cat)
		} else {
			c.Num = slices.Clone(f.Num)
		}
		cols[i] = c
	}
	if n <= 0 {
		return nil, errors.NewModelError("dataset.NewUnlabeled", "empty data", errors.ErrEmptyData)
	}
	index := make([]int, n)
	for i := range index {
		index[i] = i
	}
	return &Dataset{features: cols, levels: s.Levels, index: index, n: n}, nil
}

func distinctSorted(values []string) []string {
	set := make(map[string]struct{})
	for _, v := range values {
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Len is the number of records.
func (d *Dataset) Len() int { return d.n }

// HasLabels reports whether the dataset carries labels.
func (d *Dataset) HasLabels() bool { return d.labels != nil }

// NumFeatures is the number of feature columns before encoding.
func (d *Dataset) NumFeatures() int { return len(d.features) }

// FeatureNames returns the column names in order.
func (d *Dataset) FeatureNames() []string {
	names := make([]string, len(d.features))
	for i, f := range d.features {
		names[i] = f.Name
	}
	return names
}

// Feature returns a copy of the named column.
func (d *Dataset) Feature(name string) (Feature, bool) {
	for _, f := range d.features {
		if f.Name == name {
			return Feature{Name: f.Name, Kind: f.Kind, Num: slices.Clone(f.Num), Cat: slices.Clone(f.Cat), Levels: slices.Clone(f.Levels)}, true
		}
	}
	return Feature{}, false
}

// LabelName is the label column name.
func (d *Dataset) LabelName() string { return d.labelName }

// Labels returns a copy of the label values.
func (d *Dataset) Labels() []string { return slices.Clone(d.labels) }

// Levels returns the two label levels, positive class first.
func (d *Dataset) Levels() [2]string { return d.levels }

// Positive returns the positive (event) class.
func (d *Dataset) Positive() string { return d.levels[0] }

// Codes returns 1 for positive labels and 0 for negative ones, or nil for
// an unlabeled dataset.
func (d *Dataset) Codes() []int {
	if d.labels == nil {
		return nil
	}
	codes := make([]int, len(d.labels))
	for i, l := range d.labels {
		if l == d.levels[0] {
			codes[i] = 1
		}
	}
	return codes
}

// Index returns the original record index of row i.
func (d *Dataset) Index(i int) int { return d.index[i] }

// Indices returns the original record indices of all rows.
func (d *Dataset) Indices() []int { return slices.Clone(d.index) }

// ClassCounts returns the number of records per label level.
func (d *Dataset) ClassCounts() map[string]int {
	counts := map[string]int{d.levels[0]: 0, d.levels[1]: 0}
	for _, l := range d.labels {
		counts[l]++
	}
	return counts
}

// Subset returns the rows at the given positions (positions into this
// dataset, not original indices). The schema is shared with the parent.
func (d *Dataset) Subset(rows []int) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, errors.NewModelError("Dataset.Subset", "empty data", errors.ErrEmptyData)
	}
	n := d.Len()
	sub := &Dataset{
		features:  make([]Feature, len(d.features)),
		labelName: d.labelName,
		levels:    d.levels,
		index:     make([]int, len(rows)),
		n:         len(rows),
	}
	if d.labels != nil {
		sub.labels = make([]string, len(rows))
	}
	for i, f := range d.features {
		c := Feature{Name: f.Name, Kind: f.Kind, Levels: f.Levels}
		if f.Kind == Categorical {
			c.Cat = make([]string, len(rows))
		} else {
			c.Num = make([]float64, len(rows))
		}
		sub.features[i] = c
	}
	for k, r := range rows {
		if r < 0 || r >= n {
			return nil, errors.NewValueError("Dataset.Subset", "row position out of range")
		}
		if d.labels != nil {
			sub.labels[k] = d.labels[r]
		}
		sub.index[k] = d.index[r]
		for i, f := range d.features {
			if f.Kind == Categorical {
				sub.features[i].Cat[k] = f.Cat[r]
			} else {
				sub.features[i].Num[k] = f.Num[r]
			}
		}
	}
	return sub, nil
}

// DesignNames returns the column names of Design: numeric features keep
// their name, categorical features expand to "name=level".
func (d *Dataset) DesignNames() []string {
	var names []string
	for _, f := range d.features {
		if f.Kind == Categorical {
			for _, lvl := range f.Levels {
				names = append(names, f.Name+"="+lvl)
			}
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

// Design returns the numeric design matrix, one row per record.
// Categorical features are one-hot encoded over their full level set.
func (d *Dataset) Design() *mat.Dense {
	cols := len(d.DesignNames())
	n := d.Len()
	if cols == 0 {
		return mat.NewDense(n, 1, nil)
	}
	X := mat.NewDense(n, cols, nil)
	j := 0
	for _, f := range d.features {
		if f.Kind == Categorical {
			for l, lvl := range f.Levels {
				for i, v := range f.Cat {
					if v == lvl {
						X.Set(i, j+l, 1)
					}
				}
			}
			j += len(f.Levels)
			continue
		}
		for i, v := range f.Num {
			X.Set(i, j, v)
		}
		j++
	}
	return X
}

// Schema describes the encoding of a dataset. Predicting with a fitted
// model requires the same schema it was trained on.
type Schema struct {
	Features []FeatureSchema
	Levels   [2]string
}

// FeatureSchema is one column of a Schema.
type FeatureSchema struct {
	Name   string
	Kind   Kind
	Levels []string
}

// Schema returns the dataset schema.
func (d *Dataset) Schema() Schema {
	s := Schema{Levels: d.levels, Features: make([]FeatureSchema, len(d.features))}
	for i, f := range d.features {
		s.Features[i] = FeatureSchema{Name: f.Name, Kind: f.Kind, Levels: slices.Clone(f.Levels)}
	}
	return s
}

// Compatible reports whether the dataset encodes to the same design columns as s.
func (s Schema) Compatible(d *Dataset) error {
	if len(s.Features) != len(d.features) {
		return errors.NewDimensionError("Schema.Compatible", len(s.Features), len(d.features), 1)
	}
	for i, f := range s.Features {
		got := d.features[i]
		if got.Name != f.Name || got.Kind != f.Kind || !slices.Equal(got.Levels, f.Levels) {
			return errors.NewValidationError(f.Name, "feature does not match the training schema", got.Name)
		}
	}
	return nil
}
