package layer

import (
	"math"

	"github.com/born-ml/strata/internal/tensor"
)

// neuronLayer is the shared shape behavior of element-wise activations:
// exactly one input, exactly one output of identical shape.
type neuronLayer struct {
	baseLayer
}

func (n *neuronLayer) ExactNumBottomBlobs() int { return 1 }
func (n *neuronLayer) ExactNumTopBlobs() int    { return 1 }

func (n *neuronLayer) SetUp(bottom, top []*tensor.Blob) error {
	return nil
}

func (n *neuronLayer) Reshape(bottom, top []*tensor.Blob) error {
	if err := top[0].ReshapeLike(bottom[0]); err != nil {
		return configErrorf(n.name(), "reshape: %v", err)
	}
	return nil
}

// ReLU is the generic rectifier: f(x) = max(0, x) + negativeSlope*min(0, x).
type ReLU struct {
	neuronLayer
	negativeSlope float32
}

func newReLU(spec *Spec, params *ReLUSpec) *ReLU {
	return &ReLU{
		neuronLayer:   neuronLayer{baseLayer{spec: spec}},
		negativeSlope: params.NegativeSlope,
	}
}

// Type returns "ReLU".
func (r *ReLU) Type() string { return "ReLU" }

// Forward applies the rectifier element-wise.
func (r *ReLU) Forward(bottom, top []*tensor.Blob) {
	in, out := bottom[0].Data(), top[0].Data()
	for i, v := range in {
		if v > 0 {
			out[i] = v
		} else {
			out[i] = r.negativeSlope * v
		}
	}
}

// Backward scales the top gradient by 1 for positive inputs and by the
// negative slope otherwise.
func (r *ReLU) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	in, grad, diff := bottom[0].Data(), top[0].Diff(), bottom[0].Diff()
	for i, v := range in {
		if v > 0 {
			diff[i] = grad[i]
		} else {
			diff[i] = r.negativeSlope * grad[i]
		}
	}
}

// Sigmoid is the generic logistic activation: f(x) = 1 / (1 + exp(-x)).
type Sigmoid struct {
	neuronLayer
}

func newSigmoid(spec *Spec) *Sigmoid {
	return &Sigmoid{neuronLayer{baseLayer{spec: spec}}}
}

// Type returns "Sigmoid".
func (s *Sigmoid) Type() string { return "Sigmoid" }

// Forward applies the logistic function element-wise.
func (s *Sigmoid) Forward(bottom, top []*tensor.Blob) {
	in, out := bottom[0].Data(), top[0].Data()
	for i, v := range in {
		out[i] = float32(1 / (1 + math.Exp(-float64(v))))
	}
}

// Backward uses the identity dy/dx = y * (1 - y) on the forward output.
func (s *Sigmoid) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	out, grad, diff := top[0].Data(), top[0].Diff(), bottom[0].Diff()
	for i, y := range out {
		diff[i] = grad[i] * y * (1 - y)
	}
}

// TanH is the generic hyperbolic-tangent activation.
type TanH struct {
	neuronLayer
}

func newTanH(spec *Spec) *TanH {
	return &TanH{neuronLayer{baseLayer{spec: spec}}}
}

// Type returns "TanH".
func (t *TanH) Type() string { return "TanH" }

// Forward applies tanh element-wise.
func (t *TanH) Forward(bottom, top []*tensor.Blob) {
	in, out := bottom[0].Data(), top[0].Data()
	for i, v := range in {
		out[i] = float32(math.Tanh(float64(v)))
	}
}

// Backward uses the identity dy/dx = 1 - y^2 on the forward output.
func (t *TanH) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	out, grad, diff := top[0].Data(), top[0].Diff(), bottom[0].Diff()
	for i, y := range out {
		diff[i] = grad[i] * (1 - y*y)
	}
}
