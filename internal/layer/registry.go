package layer

import (
	"fmt"
	"sort"
	"sync"
)

// CreatorFunc builds a concrete layer from its spec, applying the engine
// resolution policy for its operator kind. On success the returned layer is
// non-nil and exclusively owned by the caller; on unresolvable configuration
// it returns a *ConfigError naming the layer.
type CreatorFunc func(spec *Spec) (Layer, error)

// Registry maps layer type strings to creator functions.
//
// Registration is single-threaded and must complete before concurrent use;
// it is not re-entrant-safe. Once registration has finished the map is never
// mutated again, so Lookup and Create are safe for unsynchronized concurrent
// reads.
type Registry struct {
	creators map[string]CreatorFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{creators: make(map[string]CreatorFunc)}
}

// Register associates a type string with a creator function. Registering the
// same type twice is a programming error and panics: it can only happen
// during process initialization, before any network exists.
func (r *Registry) Register(layerType string, creator CreatorFunc) {
	if _, ok := r.creators[layerType]; ok {
		panic(fmt.Sprintf("layer: type %q registered twice", layerType))
	}
	r.creators[layerType] = creator
}

// Lookup returns the creator for a type string, or a *ConfigError if the
// type is unknown.
func (r *Registry) Lookup(layerType string) (CreatorFunc, error) {
	creator, ok := r.creators[layerType]
	if !ok {
		return nil, &ConfigError{
			Layer:  layerType,
			Reason: fmt.Sprintf("unknown layer type %q (known types: %v)", layerType, r.Types()),
		}
	}
	return creator, nil
}

// Create looks up the spec's type and invokes its creator.
func (r *Registry) Create(spec *Spec) (Layer, error) {
	creator, ok := r.creators[spec.Type]
	if !ok {
		return nil, configErrorf(spec.Name, "unknown layer type %q (known types: %v)", spec.Type, r.Types())
	}
	return creator(spec)
}

// Types returns the registered type strings in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.creators))
	for t := range r.creators {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry, constructing it and registering
// the built-in creators exactly once on first use.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		registerBuiltins(defaultRegistry)
	})
	return defaultRegistry
}
