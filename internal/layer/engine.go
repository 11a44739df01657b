// Package layer implements the layer registry and the engine-aware factory
// of the Strata execution engine.
//
// A network description names each layer by a type string; the registry maps
// that string to a creator function which applies the per-operator engine
// resolution policy and returns a concrete Layer. Every operator kind has a
// generic reference implementation and, where the webgpu backend is compiled
// in, an accelerated one; the policy decides which of the two is built.
package layer

import "fmt"

// Engine selects the backend implementation family for a layer.
//
// EngineDefault is a request, not an implementation: it must be resolved to
// EngineGeneric or EngineAccelerated before a layer is constructed, and never
// reaches a concrete implementation.
type Engine int

const (
	// EngineDefault lets the factory pick the preferred available engine.
	EngineDefault Engine = iota
	// EngineGeneric forces the portable reference implementation.
	EngineGeneric
	// EngineAccelerated forces the webgpu implementation.
	EngineAccelerated
)

// String returns the canonical engine name.
func (e Engine) String() string {
	switch e {
	case EngineDefault:
		return "DEFAULT"
	case EngineGeneric:
		return "GENERIC"
	case EngineAccelerated:
		return "ACCELERATED"
	default:
		return fmt.Sprintf("Engine(%d)", int(e))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Engine) MarshalText() ([]byte, error) {
	switch e {
	case EngineDefault, EngineGeneric, EngineAccelerated:
		return []byte(e.String()), nil
	default:
		return nil, fmt.Errorf("unknown engine value %d", int(e))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler. The empty string maps
// to EngineDefault so specs may omit the field.
func (e *Engine) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "DEFAULT":
		*e = EngineDefault
	case "GENERIC":
		*e = EngineGeneric
	case "ACCELERATED":
		*e = EngineAccelerated
	default:
		return fmt.Errorf("unknown engine %q", text)
	}
	return nil
}
