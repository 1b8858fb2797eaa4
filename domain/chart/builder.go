package chart

import (
	"errors"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/domain/record"
	"github.com/felixgeelhaar/chartgen/domain/scaling"
)

// Domain errors for chart building. Both indicate a defect in the caller or
// the registry, not bad user input.
var (
	// ErrUnknownChartType indicates a tag without a registered builder.
	ErrUnknownChartType = errors.New("unknown chart type")

	// ErrMissingRole indicates the descriptor lacks an axis the builder needs.
	ErrMissingRole = errors.New("descriptor is missing a required role")

	// ErrNoResult indicates a builder returned neither a config nor an error.
	ErrNoResult = errors.New("builder returned no configuration")
)

// Builder turns filtered records into a chart configuration.
type Builder interface {
	Build(records []record.Record, ds dataset.Descriptor, sc scaling.Config, cc scaling.ColorConfig) (*Config, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(records []record.Record, ds dataset.Descriptor, sc scaling.Config, cc scaling.ColorConfig) (*Config, error)

// Build implements Builder.
func (f BuilderFunc) Build(records []record.Record, ds dataset.Descriptor, sc scaling.Config, cc scaling.ColorConfig) (*Config, error) {
	return f(records, ds, sc, cc)
}

// Registry maps chart types to builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[Type]Builder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[Type]Builder)}
}

// DefaultRegistry returns a registry holding a builder for every chart type.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeLine1D, pointBuilder{})
	r.Register(TypeSize, pointBuilder{size: true})
	r.Register(TypeColor, pointBuilder{color: true})
	r.Register(TypeSizeColor, pointBuilder{size: true, color: true})
	r.Register(TypeScatter, pointBuilder{y: true})
	r.Register(TypeScatterSize, pointBuilder{y: true, size: true})
	r.Register(TypeScatterColor, pointBuilder{y: true, color: true})
	r.Register(TypeScatterSizeColor, pointBuilder{y: true, size: true, color: true})

	r.Register(TypeCategory, BuilderFunc(buildCategory))
	r.Register(TypeBar, BuilderFunc(buildBar))
	r.Register(TypeBarSize, BuilderFunc(buildBarSize))
	r.Register(TypeBarColor, BuilderFunc(buildBarColor))
	r.Register(TypeGroupedBar, BuilderFunc(buildGroupedBar))

	r.Register(TypeGroupedBarSize, groupBuilder{sqrtSize: true})
	r.Register(TypeGroupedBarColor, groupBuilder{color: true})
	r.Register(TypeGroupedScatterSizeColor, groupBuilder{y: true, size: true, color: true})
	return r
}

// Register adds or replaces the builder for a chart type.
func (r *Registry) Register(t Type, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[t] = b
}

// Get returns the builder for a chart type.
func (r *Registry) Get(t Type) (Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChartType, t)
	}
	return b, nil
}

// Has reports whether a builder is registered for the chart type.
func (r *Registry) Has(t Type) bool {
	_, err := r.Get(t)
	return err == nil
}

// Build dispatches to the builder registered for t.
func (r *Registry) Build(t Type, records []record.Record, ds dataset.Descriptor, sc scaling.Config, cc scaling.ColorConfig) (*Config, error) {
	b, err := r.Get(t)
	if err != nil {
		return nil, err
	}
	cfg, err := b.Build(records, ds, sc, cc)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", t, err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("build %s: %w", t, ErrNoResult)
	}
	cfg.Type = t
	if cfg.Title == "" {
		cfg.Title = ds.Title
	}
	if cfg.Series == nil {
		cfg.Series = []Series{}
	}
	return cfg, nil
}

// roles returns the axis names bound to each requested role.
func roles(ds dataset.Descriptor, want ...dataset.Role) (map[dataset.Role]string, error) {
	out := make(map[dataset.Role]string, len(want))
	for _, role := range want {
		ax, ok := ds.Axis(role)
		if !ok || ax.Name == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingRole, role)
		}
		out[role] = ax.Name
	}
	return out, nil
}
