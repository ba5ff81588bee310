package postprocessors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// BuilderFunc creates a stage from its config, e.g. the run's chunk size.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Registry maps stage names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds a builder under name. Names must be unique.
func (r *Registry) Register(name string, builder BuilderFunc) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("processor name is required")
	case builder == nil:
		return fmt.Errorf("processor %s: builder is nil", name)
	}
	if _, ok := r.builders[name]; ok {
		return fmt.Errorf("processor %s already registered", name)
	}
	r.builders[name] = builder
	return nil
}

// Build creates the named stage with cfg.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: processor %q (known: %s)",
			domain.ErrUnsupportedType, name, strings.Join(r.Names(), ", "))
	}
	return builder(cfg)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
