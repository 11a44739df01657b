package layer

import (
	"fmt"

	"github.com/born-ml/strata/internal/tensor"
)

// Layer is the capability set every computational unit implements.
//
// Call order per instance: SetUp exactly once, then Reshape whenever input
// shapes may have changed (including immediately after SetUp), then Forward
// and Backward once per iteration. Reshape is idempotent for unchanged input
// shapes.
//
// SetUp and Reshape return a *ConfigError on misconfiguration; once they have
// succeeded, Forward and Backward always succeed for inputs matching the
// shapes established at Reshape time.
type Layer interface {
	// SetUp performs one-time initialization from the spec and the input
	// blob shapes.
	SetUp(bottom, top []*tensor.Blob) error

	// Reshape recomputes output shapes and shape-dependent bookkeeping.
	Reshape(bottom, top []*tensor.Blob) error

	// Forward computes top blob values from bottom blob values.
	Forward(bottom, top []*tensor.Blob)

	// Backward propagates gradients from the top blobs' diff buffers into
	// the bottom blobs' diff buffers. Bottom blobs whose propagateDown
	// entry is false are left untouched.
	Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob)

	// Type returns the registered type string.
	Type() string

	// Blobs returns the layer's learned parameter blobs, if any.
	Blobs() []*tensor.Blob

	// Blob-count introspection, used by the network builder to validate
	// wiring before SetUp. A return of -1 means unconstrained.
	ExactNumBottomBlobs() int
	MinBottomBlobs() int
	MaxBottomBlobs() int
	ExactNumTopBlobs() int
	MinTopBlobs() int
	MaxTopBlobs() int
}

// baseLayer carries the spec and provides unconstrained defaults for the
// introspection methods. Concrete layers embed it and override what they
// constrain.
type baseLayer struct {
	spec *Spec
}

func (b *baseLayer) Blobs() []*tensor.Blob  { return nil }
func (b *baseLayer) ExactNumBottomBlobs() int { return -1 }
func (b *baseLayer) MinBottomBlobs() int      { return -1 }
func (b *baseLayer) MaxBottomBlobs() int      { return -1 }
func (b *baseLayer) ExactNumTopBlobs() int    { return -1 }
func (b *baseLayer) MinTopBlobs() int         { return -1 }
func (b *baseLayer) MaxTopBlobs() int         { return -1 }

// name returns the layer name for diagnostics.
func (b *baseLayer) name() string {
	return b.spec.Name
}

// ConfigError is a fatal configuration error: a network carrying one can
// never execute correctly, so there is no recovery path beyond reporting it
// and terminating construction. It always names the offending layer.
type ConfigError struct {
	Layer  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("layer %q: %s", e.Layer, e.Reason)
}

// configErrorf builds a ConfigError with a formatted reason.
func configErrorf(layer, format string, args ...any) *ConfigError {
	return &ConfigError{Layer: layer, Reason: fmt.Sprintf(format, args...)}
}
