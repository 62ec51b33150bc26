package model

import (
	"slices"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// Axis is one tuned hyperparameter and its candidate values, in order.
type Axis struct {
	Name   string
	Values []float64
}

// Grid is the Cartesian product of its axes.
//
// Enumeration order matches R's expand.grid: the first axis varies
// fastest. The trainer breaks metric ties in favour of the configuration
// enumerated first, so axis and value order are part of the contract.
type Grid struct {
	axes []Axis
}

// NewGrid creates a grid from axes. Values are copied.
func NewGrid(axes ...Axis) *Grid {
	g := &Grid{}
	for _, a := range axes {
		g.Add(a.Name, a.Values...)
	}
	return g
}

// Add appends an axis and returns the grid for chaining.
func (g *Grid) Add(name string, values ...float64) *Grid {
	g.axes = append(g.axes, Axis{Name: name, Values: slices.Clone(values)})
	return g
}

// Axes returns a copy of the axes.
func (g *Grid) Axes() []Axis {
	out := make([]Axis, len(g.axes))
	for i, a := range g.axes {
		out[i] = Axis{Name: a.Name, Values: slices.Clone(a.Values)}
	}
	return out
}

// Axis returns the axis with the given name.
func (g *Grid) Axis(name string) (Axis, bool) {
	for _, a := range g.axes {
		if a.Name == name {
			return a, true
		}
	}
	return Axis{}, false
}

// Len is the number of configurations. A grid without axes has exactly one
// (empty) configuration: the family defaults.
func (g *Grid) Len() int {
	if g == nil {
		return 1
	}
	n := 1
	for _, a := range g.axes {
		n *= len(a.Values)
	}
	return n
}

// Configs enumerates every configuration, first axis fastest.
func (g *Grid) Configs() []Config {
	if g == nil || len(g.axes) == 0 {
		return []Config{{}}
	}
	total := g.Len()
	out := make([]Config, total)
	for i := 0; i < total; i++ {
		cfg := make(Config, len(g.axes))
		rem := i
		for j, a := range g.axes {
			cfg[j] = Param{Name: a.Name, Value: a.Values[rem%len(a.Values)]}
			rem /= len(a.Values)
		}
		out[i] = cfg
	}
	return out
}

// Validate rejects empty axes, duplicate names and names the family does
// not accept.
func (g *Grid) Validate(f Family) error {
	if g == nil {
		return nil
	}
	accepted := f.Params()
	seen := make(map[string]bool, len(g.axes))
	for _, a := range g.axes {
		if len(a.Values) == 0 {
			return errors.NewValidationError(a.Name, "grid axis has no values", a.Values)
		}
		if seen[a.Name] {
			return errors.NewValidationError(a.Name, "duplicate grid axis", a.Name)
		}
		seen[a.Name] = true
		if !slices.Contains(accepted, a.Name) {
			return errors.NewValidationError(a.Name, "unknown parameter for "+f.Name(), accepted)
		}
	}
	return nil
}

// ValidateConfig checks that every parameter in cfg is accepted by f.
func ValidateConfig(f Family, cfg Config) error {
	accepted := f.Params()
	for _, p := range cfg {
		if !slices.Contains(accepted, p.Name) {
			return errors.NewValidationError(p.Name, "unknown parameter for "+f.Name(), accepted)
		}
	}
	return nil
}

func newConfigError(key string) error {
	return errors.NewValueError("ParseConfig", "malformed configuration key "+key)
}
