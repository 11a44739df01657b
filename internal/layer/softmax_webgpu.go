package layer

import (
	"github.com/born-ml/strata/internal/backend/webgpu"
	"github.com/born-ml/strata/internal/tensor"
)

// WebGPUSoftmax is the accelerated softmax variant.
type WebGPUSoftmax struct {
	*Softmax
	ctx *webgpu.Context
}

func newWebGPUSoftmax(spec *Spec, params *SoftmaxSpec, ctx *webgpu.Context) *WebGPUSoftmax {
	return &WebGPUSoftmax{Softmax: newSoftmax(spec, params), ctx: ctx}
}

// Forward dispatches the softmax kernel.
func (s *WebGPUSoftmax) Forward(bottom, top []*tensor.Blob) {
	s.ctx.SoftmaxForward(bottom[0].Data(), top[0].Data(), s.outer, s.channels, s.inner)
}

// Backward dispatches the softmax gradient kernel.
func (s *WebGPUSoftmax) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	s.ctx.SoftmaxBackward(top[0].Data(), top[0].Diff(), bottom[0].Diff(), s.outer, s.channels, s.inner)
}
