package search

import (
	"fmt"
	"sort"

	"BookAnnotator/internal/ports"
)

// Registry keeps a mapping from engine names to their implementations.
type Registry struct {
	engines map[string]ports.SearchEngine
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: map[string]ports.SearchEngine{}}
}

// Register adds or replaces an engine implementation.
func (r *Registry) Register(engine ports.SearchEngine) {
	if r.engines == nil {
		r.engines = map[string]ports.SearchEngine{}
	}
	r.engines[engine.Name()] = engine
}

// Resolve returns an engine by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.SearchEngine, error) {
	if engine, ok := r.engines[name]; ok {
		return engine, nil
	}
	return nil, fmt.Errorf("search engine %s is not registered (known: %v)", name, r.Names())
}

// Names lists registered engines in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
