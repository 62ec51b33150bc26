package model

import (
	"math"
	"strconv"
	"strings"
)

// Param is one named hyperparameter value.
type Param struct {
	Name  string
	Value float64
}

// Config is one point of a hyperparameter grid. Order follows the grid axes.
type Config []Param

// Lookup returns the value of name.
func (c Config) Lookup(name string) (float64, bool) {
	for _, p := range c {
		if p.Name == name {
			return p.Value, true
		}
	}
	return 0, false
}

// Float returns the value of name or def when absent.
func (c Config) Float(name string, def float64) float64 {
	if v, ok := c.Lookup(name); ok {
		return v
	}
	return def
}

// Int returns the value of name rounded to the nearest integer, or def.
func (c Config) Int(name string, def int) int {
	if v, ok := c.Lookup(name); ok {
		return int(math.Round(v))
	}
	return def
}

// With returns a copy of c with name set to value.
func (c Config) With(name string, value float64) Config {
	out := make(Config, 0, len(c)+1)
	found := false
	for _, p := range c {
		if p.Name == name {
			p.Value = value
			found = true
		}
		out = append(out, p)
	}
	if !found {
		out = append(out, Param{Name: name, Value: value})
	}
	return out
}

// Names returns the parameter names in order.
func (c Config) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}

// String formats the configuration as "a=1, b=0.1". An empty configuration
// prints as "default".
func (c Config) String() string {
	if len(c) == 0 {
		return "default"
	}
	parts := make([]string, len(c))
	for i, p := range c {
		parts[i] = p.Name + "=" + strconv.FormatFloat(p.Value, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}

// Key is a compact identifier suitable for map keys and storage.
func (c Config) Key() string {
	parts := make([]string, len(c))
	for i, p := range c {
		parts[i] = p.Name + "=" + strconv.FormatFloat(p.Value, 'g', -1, 64)
	}
	return strings.Join(parts, ";")
}

// Equal reports whether the two configurations hold the same values in the same order.
func (c Config) Equal(other Config) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// ParseConfig parses the Key() form back into a Config.
func ParseConfig(key string) (Config, error) {
	if key == "" {
		return Config{}, nil
	}
	var cfg Config
	for _, part := range strings.Split(key, ";") {
		name, raw, ok := strings.Cut(part, "=")
		if !ok {
			return nil, newConfigError(key)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, newConfigError(key)
		}
		cfg = append(cfg, Param{Name: name, Value: v})
	}
	return cfg, nil
}
