package net

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strata/internal/layer"
	"github.com/born-ml/strata/internal/tensor"
)

const sliceNetJSON = `{
	"name": "splitter",
	"inputs": [{"name": "data", "shape": [2, 8]}],
	"layers": [
		{
			"name": "slicer",
			"type": "Slice",
			"bottom": ["data"],
			"top": ["left", "mid", "right"],
			"slice": {"slice_point": [2, 5]}
		}
	]
}`

func TestParseSpec(t *testing.T) {
	spec, err := ParseSpec(strings.NewReader(sliceNetJSON))
	require.NoError(t, err)
	assert.Equal(t, "splitter", spec.Name)
	require.Len(t, spec.Inputs, 1)
	assert.Equal(t, tensor.Shape{2, 8}, spec.Inputs[0].Shape)
	require.Len(t, spec.Layers, 1)
	assert.Equal(t, "Slice", spec.Layers[0].Type)
	assert.Equal(t, []int{2, 5}, spec.Layers[0].Slice.SlicePoints)
}

func TestParseSpecRejectsUnknownFields(t *testing.T) {
	_, err := ParseSpec(strings.NewReader(`{"name": "x", "phase": "TRAIN"}`))
	require.Error(t, err)
}

func TestNetForwardBackward(t *testing.T) {
	spec, err := ParseSpec(strings.NewReader(sliceNetJSON))
	require.NoError(t, err)

	n, err := New(spec, layer.Default())
	require.NoError(t, err)
	assert.Equal(t, "splitter", n.Name())
	require.Len(t, n.Layers(), 1)

	in := n.Input("data")
	require.NotNil(t, in)
	for i := range in.Data() {
		in.Data()[i] = float32(i)
	}

	n.Forward()
	left, mid, right := n.Blob("left"), n.Blob("mid"), n.Blob("right")
	assert.Equal(t, tensor.Shape{2, 2}, left.Shape())
	assert.Equal(t, tensor.Shape{2, 3}, mid.Shape())
	assert.Equal(t, tensor.Shape{2, 3}, right.Shape())
	assert.Equal(t, []float32{0, 1, 8, 9}, left.Data())
	assert.Equal(t, []float32{2, 3, 4, 10, 11, 12}, mid.Data())
	assert.Equal(t, []float32{5, 6, 7, 13, 14, 15}, right.Data())

	// Gradients never flow into network inputs.
	for _, b := range []*tensor.Blob{left, mid, right} {
		copy(b.Diff(), b.Data())
	}
	n.Backward()
	for _, v := range in.Diff() {
		assert.Equal(t, float32(0), v)
	}
}

func TestNetChainsLayers(t *testing.T) {
	spec := &Spec{
		Name:   "chain",
		Inputs: []InputSpec{{Name: "data", Shape: tensor.Shape{1, 4}}},
		Layers: []*layer.Spec{
			{Name: "act", Type: "ReLU", Bottoms: []string{"data"}, Tops: []string{"rect"}},
			{Name: "prob", Type: "Softmax", Bottoms: []string{"rect"}, Tops: []string{"out"}},
		},
	}
	n, err := New(spec, layer.Default())
	require.NoError(t, err)

	copy(n.Input("data").Data(), []float32{-1, 0, 1, 2})
	n.Forward()

	out := n.Blob("out").Data()
	var sum float32
	for _, v := range out {
		assert.Greater(t, v, float32(0))
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestNetUnknownBottom(t *testing.T) {
	spec := &Spec{
		Name: "broken",
		Layers: []*layer.Spec{
			{Name: "act", Type: "ReLU", Bottoms: []string{"ghost"}, Tops: []string{"out"}},
		},
	}
	_, err := New(spec, layer.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestNetBlobCountValidation(t *testing.T) {
	spec := &Spec{
		Name:   "broken",
		Inputs: []InputSpec{{Name: "a", Shape: tensor.Shape{1, 2}}, {Name: "b", Shape: tensor.Shape{1, 2}}},
		Layers: []*layer.Spec{
			{Name: "act", Type: "ReLU", Bottoms: []string{"a", "b"}, Tops: []string{"out"}},
		},
	}
	_, err := New(spec, layer.Default())
	var cfgErr *layer.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "act", cfgErr.Layer)
}

func TestNetUnknownLayerType(t *testing.T) {
	spec := &Spec{
		Name:   "broken",
		Inputs: []InputSpec{{Name: "data", Shape: tensor.Shape{1, 2}}},
		Layers: []*layer.Spec{
			{Name: "x", Type: "Deconvolution", Bottoms: []string{"data"}, Tops: []string{"out"}},
		},
	}
	_, err := New(spec, layer.Default())
	var cfgErr *layer.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestNetReshapePropagates(t *testing.T) {
	spec := &Spec{
		Name:   "resizable",
		Inputs: []InputSpec{{Name: "data", Shape: tensor.Shape{2, 6}}},
		Layers: []*layer.Spec{
			{Name: "slicer", Type: "Slice", Bottoms: []string{"data"}, Tops: []string{"a", "b"}},
		},
	}
	n, err := New(spec, layer.Default())
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, n.Blob("a").Shape())

	require.NoError(t, n.Input("data").Reshape(tensor.Shape{4, 6}))
	require.NoError(t, n.Reshape())
	assert.Equal(t, tensor.Shape{4, 3}, n.Blob("a").Shape())
}
