package layer

import (
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/strata/internal/backend/webgpu"
	"github.com/born-ml/strata/internal/tensor"
)

// WebGPUConvolution is the accelerated convolution variant. The resolution
// policy guarantees it is never built for a dilated layer, so its kernels
// only handle the dense case.
type WebGPUConvolution struct {
	*Convolution
	ctx *webgpu.Context

	dwScratch []float32 // per-call weight gradient contribution
	dbScratch []float32 // per-call bias gradient contribution
}

func newWebGPUConvolution(spec *Spec, ctx *webgpu.Context) *WebGPUConvolution {
	return &WebGPUConvolution{Convolution: newConvolution(spec), ctx: ctx}
}

func (c *WebGPUConvolution) convParams(batch int) webgpu.ConvParams {
	return webgpu.ConvParams{
		Batch:       batch,
		InChannels:  c.inChannels,
		InH:         c.inH,
		InW:         c.inW,
		OutChannels: c.params.NumOutput,
		KernelH:     c.params.KernelH,
		KernelW:     c.params.KernelW,
		StrideH:     c.strideH(),
		StrideW:     c.strideW(),
		PadH:        c.params.PadH,
		PadW:        c.params.PadW,
		OutH:        c.outH,
		OutW:        c.outW,
	}
}

// Forward dispatches the convolution kernel.
func (c *WebGPUConvolution) Forward(bottom, top []*tensor.Blob) {
	var bias []float32
	if c.bias != nil {
		bias = c.bias.Data()
	}
	c.ctx.ConvForward(bottom[0].Data(), c.weight.Data(), bias, top[0].Data(), c.convParams(bottom[0].Dim(0)))
}

// Backward dispatches the three gradient kernels. Parameter contributions
// are computed into scratch buffers and accumulated here, preserving the
// convention that parameter diffs sum across calls.
func (c *WebGPUConvolution) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	in, out := bottom[0], top[0]
	p := c.convParams(in.Dim(0))

	if c.bias != nil {
		m := c.bias.Count()
		if cap(c.dbScratch) < m {
			c.dbScratch = make([]float32, m)
		}
		c.dbScratch = c.dbScratch[:m]
		c.ctx.ConvBackwardBias(out.Diff(), c.dbScratch, p)
		blas32.Axpy(1,
			blas32.Vector{N: m, Inc: 1, Data: c.dbScratch},
			blas32.Vector{N: m, Inc: 1, Data: c.bias.Diff()})
	}

	n := c.weight.Count()
	if cap(c.dwScratch) < n {
		c.dwScratch = make([]float32, n)
	}
	c.dwScratch = c.dwScratch[:n]
	c.ctx.ConvBackwardWeight(in.Data(), out.Diff(), c.dwScratch, p)
	blas32.Axpy(1,
		blas32.Vector{N: n, Inc: 1, Data: c.dwScratch},
		blas32.Vector{N: n, Inc: 1, Data: c.weight.Diff()})

	if propagateDown[0] {
		c.ctx.ConvBackwardInput(c.weight.Data(), out.Diff(), in.Diff(), p)
	}
}
