package model

import (
	"sort"
	"sync"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Family{}
)

// Register makes a family available by name. Families register themselves
// from their package init; registering a name twice panics.
func Register(f Family) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[f.Name()]; dup {
		panic("model: Register called twice for family " + f.Name())
	}
	registry[f.Name()] = f
}

// Lookup returns a registered family.
func Lookup(name string) (Family, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	if !ok {
		return nil, errors.NewValidationError("family", "unknown model family", name)
	}
	return f, nil
}

// Names returns registered family names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
