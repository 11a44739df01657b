package layer

import (
	"github.com/born-ml/strata/internal/backend/webgpu"
	"github.com/born-ml/strata/internal/tensor"
)

// WebGPUPooling is the accelerated pooling variant. The resolution policy
// routes MAX pooling and multi-top layers to the generic implementation, so
// this variant only ever runs average pooling with a single top blob.
type WebGPUPooling struct {
	*Pooling
	ctx *webgpu.Context
}

func newWebGPUPooling(spec *Spec, ctx *webgpu.Context) *WebGPUPooling {
	return &WebGPUPooling{Pooling: newPooling(spec), ctx: ctx}
}

func (p *WebGPUPooling) poolParams(batch int) webgpu.PoolParams {
	return webgpu.PoolParams{
		Batch:    batch,
		Channels: p.channels,
		InH:      p.inH,
		InW:      p.inW,
		KernelH:  p.params.KernelH,
		KernelW:  p.params.KernelW,
		StrideH:  p.strideH(),
		StrideW:  p.strideW(),
		PadH:     p.params.PadH,
		PadW:     p.params.PadW,
		OutH:     p.outH,
		OutW:     p.outW,
	}
}

// Forward dispatches the average pooling kernel.
func (p *WebGPUPooling) Forward(bottom, top []*tensor.Blob) {
	p.ctx.AvePoolForward(bottom[0].Data(), top[0].Data(), p.poolParams(bottom[0].Dim(0)))
}

// Backward dispatches the average pooling gradient kernel.
func (p *WebGPUPooling) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	p.ctx.AvePoolBackward(top[0].Diff(), bottom[0].Diff(), p.poolParams(bottom[0].Dim(0)))
}
