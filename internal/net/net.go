// Package net assembles layers into an executable network.
//
// A network is built once from a Spec: each layer is created through the
// layer registry, wired to its named bottom and top blobs, validated against
// the layer's blob-count constraints, and set up in declaration order.
// Execution then alternates Forward and Backward over the same order.
package net

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/born-ml/strata/internal/layer"
	"github.com/born-ml/strata/internal/tensor"
)

// InputSpec declares a named network input and its shape.
type InputSpec struct {
	Name  string       `json:"name"`
	Shape tensor.Shape `json:"shape"`
}

// Spec describes a whole network: its inputs and its layers in execution
// order. Every layer's bottom names must be produced earlier, either as a
// network input or as another layer's top.
type Spec struct {
	Name   string        `json:"name"`
	Inputs []InputSpec   `json:"inputs"`
	Layers []*layer.Spec `json:"layers"`
}

// ParseSpec decodes a network spec from JSON.
func ParseSpec(r io.Reader) (*Spec, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var spec Spec
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("net: decoding spec: %w", err)
	}
	return &spec, nil
}

// Net is an executable network. It owns the blobs flowing between layers;
// input blobs are filled by the caller through Input before Forward.
type Net struct {
	name   string
	layers []layer.Layer
	specs  []*layer.Spec

	blobs   map[string]*tensor.Blob
	bottoms [][]*tensor.Blob
	tops    [][]*tensor.Blob

	// propagate[i][j] reports whether layer i back-propagates into its j-th
	// bottom blob: true unless the blob is a network input.
	propagate [][]bool
	inputs    []string
}

// New builds a network from its spec using the given registry. Construction
// is fatal on the first misconfigured layer: the returned error is a
// *layer.ConfigError naming it.
func New(spec *Spec, registry *layer.Registry) (*Net, error) {
	n := &Net{
		name:  spec.Name,
		blobs: make(map[string]*tensor.Blob),
	}
	for _, in := range spec.Inputs {
		if _, ok := n.blobs[in.Name]; ok {
			return nil, fmt.Errorf("net %q: duplicate input %q", spec.Name, in.Name)
		}
		blob, err := tensor.NewBlob(in.Shape)
		if err != nil {
			return nil, fmt.Errorf("net %q: input %q: %w", spec.Name, in.Name, err)
		}
		n.blobs[in.Name] = blob
		n.inputs = append(n.inputs, in.Name)
	}

	for _, ls := range spec.Layers {
		l, err := registry.Create(ls)
		if err != nil {
			return nil, err
		}

		bottoms := make([]*tensor.Blob, len(ls.Bottoms))
		propagate := make([]bool, len(ls.Bottoms))
		for i, name := range ls.Bottoms {
			blob, ok := n.blobs[name]
			if !ok {
				return nil, fmt.Errorf("net %q: layer %q consumes unknown blob %q", spec.Name, ls.Name, name)
			}
			bottoms[i] = blob
			propagate[i] = !n.isInput(name)
		}

		tops := make([]*tensor.Blob, len(ls.Tops))
		for i, name := range ls.Tops {
			if _, ok := n.blobs[name]; ok {
				return nil, fmt.Errorf("net %q: layer %q reproduces blob %q", spec.Name, ls.Name, name)
			}
			blob, err := tensor.NewBlob(tensor.Shape{1})
			if err != nil {
				return nil, fmt.Errorf("net %q: top %q: %w", spec.Name, name, err)
			}
			n.blobs[name] = blob
			tops[i] = blob
		}

		if err := checkBlobCounts(ls, l, len(bottoms), len(tops)); err != nil {
			return nil, err
		}
		if err := l.SetUp(bottoms, tops); err != nil {
			return nil, err
		}
		if err := l.Reshape(bottoms, tops); err != nil {
			return nil, err
		}

		n.layers = append(n.layers, l)
		n.specs = append(n.specs, ls)
		n.bottoms = append(n.bottoms, bottoms)
		n.tops = append(n.tops, tops)
		n.propagate = append(n.propagate, propagate)
		slog.Debug("layer ready", "net", spec.Name, "layer", ls.Name, "type", ls.Type)
	}
	return n, nil
}

func (n *Net) isInput(name string) bool {
	for _, in := range n.inputs {
		if in == name {
			return true
		}
	}
	return false
}

// checkBlobCounts validates a layer's wiring against its introspection
// methods before SetUp runs.
func checkBlobCounts(spec *layer.Spec, l layer.Layer, numBottom, numTop int) error {
	counts := []struct {
		want, got int
		format    string
	}{
		{l.ExactNumBottomBlobs(), numBottom, "%s takes exactly %d bottom blob(s), got %d"},
		{l.ExactNumTopBlobs(), numTop, "%s produces exactly %d top blob(s), got %d"},
	}
	for _, c := range counts {
		if c.want >= 0 && c.got != c.want {
			return &layer.ConfigError{Layer: spec.Name, Reason: fmt.Sprintf(c.format, spec.Type, c.want, c.got)}
		}
	}
	if m := l.MinBottomBlobs(); m >= 0 && numBottom < m {
		return &layer.ConfigError{Layer: spec.Name, Reason: fmt.Sprintf("%s takes at least %d bottom blob(s), got %d", spec.Type, m, numBottom)}
	}
	if m := l.MaxBottomBlobs(); m >= 0 && numBottom > m {
		return &layer.ConfigError{Layer: spec.Name, Reason: fmt.Sprintf("%s takes at most %d bottom blob(s), got %d", spec.Type, m, numBottom)}
	}
	if m := l.MinTopBlobs(); m >= 0 && numTop < m {
		return &layer.ConfigError{Layer: spec.Name, Reason: fmt.Sprintf("%s produces at least %d top blob(s), got %d", spec.Type, m, numTop)}
	}
	if m := l.MaxTopBlobs(); m >= 0 && numTop > m {
		return &layer.ConfigError{Layer: spec.Name, Reason: fmt.Sprintf("%s produces at most %d top blob(s), got %d", spec.Type, m, numTop)}
	}
	return nil
}

// Name returns the network's name.
func (n *Net) Name() string { return n.name }

// Layers returns the constructed layers in execution order.
func (n *Net) Layers() []layer.Layer { return n.layers }

// Blob returns a named blob, or nil if no layer or input declares it.
func (n *Net) Blob(name string) *tensor.Blob { return n.blobs[name] }

// Input returns a named input blob, or nil for unknown names.
func (n *Net) Input(name string) *tensor.Blob {
	if !n.isInput(name) {
		return nil
	}
	return n.blobs[name]
}

// Reshape re-runs every layer's Reshape in order, propagating a changed
// input shape through the network.
func (n *Net) Reshape() error {
	for i, l := range n.layers {
		if err := l.Reshape(n.bottoms[i], n.tops[i]); err != nil {
			return err
		}
	}
	return nil
}

// Forward runs every layer's forward pass in order.
func (n *Net) Forward() {
	for i, l := range n.layers {
		l.Forward(n.bottoms[i], n.tops[i])
	}
}

// Backward runs every layer's backward pass in reverse order. Gradients are
// not propagated into network input blobs.
func (n *Net) Backward() {
	for i := len(n.layers) - 1; i >= 0; i-- {
		n.layers[i].Backward(n.tops[i], n.propagate[i], n.bottoms[i])
	}
}
