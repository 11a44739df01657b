package layer

import (
	"github.com/born-ml/strata/internal/backend/webgpu"
	"github.com/born-ml/strata/internal/tensor"
)

// WebGPUReLU is the accelerated rectifier variant.
type WebGPUReLU struct {
	*ReLU
	ctx *webgpu.Context
}

func newWebGPUReLU(spec *Spec, params *ReLUSpec, ctx *webgpu.Context) *WebGPUReLU {
	return &WebGPUReLU{ReLU: newReLU(spec, params), ctx: ctx}
}

// Forward dispatches the rectifier kernel.
func (r *WebGPUReLU) Forward(bottom, top []*tensor.Blob) {
	r.ctx.ReLUForward(bottom[0].Data(), top[0].Data(), r.negativeSlope)
}

// Backward dispatches the rectifier gradient kernel.
func (r *WebGPUReLU) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	r.ctx.ReLUBackward(bottom[0].Data(), top[0].Diff(), bottom[0].Diff(), r.negativeSlope)
}

// WebGPUSigmoid is the accelerated sigmoid variant.
type WebGPUSigmoid struct {
	*Sigmoid
	ctx *webgpu.Context
}

func newWebGPUSigmoid(spec *Spec, ctx *webgpu.Context) *WebGPUSigmoid {
	return &WebGPUSigmoid{Sigmoid: newSigmoid(spec), ctx: ctx}
}

// Forward dispatches the sigmoid kernel.
func (s *WebGPUSigmoid) Forward(bottom, top []*tensor.Blob) {
	s.ctx.SigmoidForward(bottom[0].Data(), top[0].Data())
}

// Backward dispatches the sigmoid gradient kernel, which works from the
// forward output.
func (s *WebGPUSigmoid) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	s.ctx.SigmoidBackward(top[0].Data(), top[0].Diff(), bottom[0].Diff())
}

// WebGPUTanH is the accelerated hyperbolic-tangent variant.
type WebGPUTanH struct {
	*TanH
	ctx *webgpu.Context
}

func newWebGPUTanH(spec *Spec, ctx *webgpu.Context) *WebGPUTanH {
	return &WebGPUTanH{TanH: newTanH(spec), ctx: ctx}
}

// Forward dispatches the tanh kernel.
func (t *WebGPUTanH) Forward(bottom, top []*tensor.Blob) {
	t.ctx.TanHForward(bottom[0].Data(), top[0].Data())
}

// Backward dispatches the tanh gradient kernel, which works from the
// forward output.
func (t *WebGPUTanH) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	t.ctx.TanHBackward(top[0].Data(), top[0].Diff(), bottom[0].Diff())
}
