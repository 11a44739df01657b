package layer

import (
	"github.com/born-ml/strata/internal/backend/webgpu"
	"github.com/born-ml/strata/internal/tensor"
)

// WebGPUSlice is the accelerated slice variant. It shares the generic
// layer's shape bookkeeping and realizes the partition copies as GPU
// buffer-to-buffer transfers, which are byte-identical to the generic
// implementation by construction.
type WebGPUSlice struct {
	*Slice
	ctx *webgpu.Context
}

func newWebGPUSlice(spec *Spec, params *SliceSpec, ctx *webgpu.Context) *WebGPUSlice {
	return &WebGPUSlice{Slice: newSlice(spec, params), ctx: ctx}
}

func (s *WebGPUSlice) topWidths(top []*tensor.Blob) []int {
	widths := make([]int, len(top))
	for i, t := range top {
		widths[i] = t.Dim(s.axis)
	}
	return widths
}

// Forward copies each partition out of the input on the device.
func (s *WebGPUSlice) Forward(bottom, top []*tensor.Blob) {
	outs := make([][]float32, len(top))
	for i, t := range top {
		outs[i] = t.Data()
	}
	s.ctx.SliceForward(bottom[0].Data(), outs, s.outerCount, bottom[0].Dim(s.axis), s.sliceSize, s.topWidths(top))
}

// Backward gathers the output gradients back into the input gradient on the
// device.
func (s *WebGPUSlice) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	grads := make([][]float32, len(top))
	for i, t := range top {
		grads[i] = t.Diff()
	}
	s.ctx.SliceBackward(grads, bottom[0].Diff(), s.outerCount, bottom[0].Dim(s.axis), s.sliceSize, s.topWidths(top))
}
