package layer

import (
	"github.com/born-ml/strata/internal/backend/webgpu"
	"github.com/born-ml/strata/internal/tensor"
)

// WebGPULRN is the accelerated local response normalization variant. The
// within-channel region is served by a dedicated kernel family (the local
// contrast normalization path); the resolution policy picks this type for
// both and only routes oversized across-channel regions back to the generic
// layer.
type WebGPULRN struct {
	*LRN
	ctx *webgpu.Context
}

func newWebGPULRN(spec *Spec, params *LRNSpec, ctx *webgpu.Context) *WebGPULRN {
	return &WebGPULRN{LRN: newLRN(spec, params), ctx: ctx}
}

func (l *WebGPULRN) lrnParams(batch int) webgpu.LRNParams {
	return webgpu.LRNParams{
		Batch:         batch,
		Channels:      l.channels,
		Height:        l.height,
		Width:         l.width,
		LocalSize:     l.params.EffectiveLocalSize(),
		Alpha:         l.params.EffectiveAlpha(),
		Beta:          l.params.EffectiveBeta(),
		K:             l.params.EffectiveK(),
		WithinChannel: l.params.EffectiveRegion() == NormWithinChannel,
	}
}

// Forward dispatches the normalization kernel; the device fills the retained
// scale buffer alongside the output.
func (l *WebGPULRN) Forward(bottom, top []*tensor.Blob) {
	l.ctx.LRNForward(bottom[0].Data(), top[0].Data(), l.scale, l.lrnParams(bottom[0].Dim(0)))
}

// Backward dispatches the normalization gradient kernel.
func (l *WebGPULRN) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	l.ctx.LRNBackward(bottom[0].Data(), l.scale, top[0].Diff(), bottom[0].Diff(), l.lrnParams(bottom[0].Dim(0)))
}
