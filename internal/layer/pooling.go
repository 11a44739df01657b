package layer

import (
	"math"

	"github.com/born-ml/strata/internal/tensor"
)

// Pooling is the generic 2D pooling over NCHW blobs, supporting MAX and AVE
// reductions. MAX pooling tracks the winning index per output position for
// the backward pass and may expose those indices through a second top blob.
type Pooling struct {
	baseLayer
	params *PoolingSpec

	channels   int
	inH, inW   int
	outH, outW int
	maxIdx     []int // argmax per output element, MAX only
}

func newPooling(spec *Spec) *Pooling {
	return &Pooling{baseLayer: baseLayer{spec: spec}, params: spec.Pooling}
}

// Type returns "Pooling".
func (p *Pooling) Type() string { return "Pooling" }

// ExactNumBottomBlobs returns 1.
func (p *Pooling) ExactNumBottomBlobs() int { return 1 }

// MinTopBlobs returns 1.
func (p *Pooling) MinTopBlobs() int { return 1 }

// MaxTopBlobs returns 2 for MAX pooling, whose second top carries the
// winning indices; 1 otherwise.
func (p *Pooling) MaxTopBlobs() int {
	if p.method() == PoolMax {
		return 2
	}
	return 1
}

func (p *Pooling) method() PoolMethod {
	if p.params.Method == "" {
		return PoolMax
	}
	return p.params.Method
}

func (p *Pooling) strideH() int { return defaultOne(p.params.StrideH) }
func (p *Pooling) strideW() int { return defaultOne(p.params.StrideW) }

// SetUp validates the pooling geometry.
func (p *Pooling) SetUp(bottom, top []*tensor.Blob) error {
	if p.params.KernelH <= 0 || p.params.KernelW <= 0 {
		return configErrorf(p.name(), "pooling kernel must be positive, got %dx%d", p.params.KernelH, p.params.KernelW)
	}
	if p.params.PadH >= p.params.KernelH || p.params.PadW >= p.params.KernelW {
		return configErrorf(p.name(), "pooling pad %dx%d must be smaller than kernel %dx%d",
			p.params.PadH, p.params.PadW, p.params.KernelH, p.params.KernelW)
	}
	switch p.method() {
	case PoolMax, PoolAve:
	default:
		return configErrorf(p.name(), "unknown pooling method %q", p.params.Method)
	}
	return nil
}

// Reshape computes the pooled extent. The output is sized so every input
// position is covered; a window starting entirely in the padding is dropped.
func (p *Pooling) Reshape(bottom, top []*tensor.Blob) error {
	in := bottom[0]
	if in.NumAxes() != 4 {
		return configErrorf(p.name(), "pooling expects a 4D NCHW input, got %dD", in.NumAxes())
	}
	pp := p.params
	p.channels = in.Dim(1)
	p.inH, p.inW = in.Dim(2), in.Dim(3)
	p.outH = int(math.Ceil(float64(p.inH+2*pp.PadH-pp.KernelH)/float64(p.strideH()))) + 1
	p.outW = int(math.Ceil(float64(p.inW+2*pp.PadW-pp.KernelW)/float64(p.strideW()))) + 1
	if pp.PadH > 0 && (p.outH-1)*p.strideH() >= p.inH+pp.PadH {
		p.outH--
	}
	if pp.PadW > 0 && (p.outW-1)*p.strideW() >= p.inW+pp.PadW {
		p.outW--
	}

	shape := tensor.Shape{in.Dim(0), p.channels, p.outH, p.outW}
	for i, t := range top {
		if err := t.Reshape(shape); err != nil {
			return configErrorf(p.name(), "pooling output %d: %v", i, err)
		}
	}
	if p.method() == PoolMax {
		n := shape.NumElements()
		if cap(p.maxIdx) < n {
			p.maxIdx = make([]int, n)
		}
		p.maxIdx = p.maxIdx[:n]
	}
	return nil
}

// Forward reduces each pooling window.
func (p *Pooling) Forward(bottom, top []*tensor.Blob) {
	in, out := bottom[0], top[0]
	pp := p.params
	batch := in.Dim(0)
	x, y := in.Data(), out.Data()
	isMax := p.method() == PoolMax

	oi := 0
	for n := 0; n < batch; n++ {
		for c := 0; c < p.channels; c++ {
			plane := x[(n*p.channels+c)*p.inH*p.inW:]
			for oh := 0; oh < p.outH; oh++ {
				for ow := 0; ow < p.outW; ow++ {
					hstart := oh*p.strideH() - pp.PadH
					wstart := ow*p.strideW() - pp.PadW
					hend := min(hstart+pp.KernelH, p.inH+pp.PadH)
					wend := min(wstart+pp.KernelW, p.inW+pp.PadW)
					poolSize := (hend - hstart) * (wend - wstart)
					hstart, wstart = max(hstart, 0), max(wstart, 0)
					hend, wend = min(hend, p.inH), min(wend, p.inW)

					if isMax {
						best := float32(math.Inf(-1))
						bestIdx := -1
						for h := hstart; h < hend; h++ {
							for w := wstart; w < wend; w++ {
								if v := plane[h*p.inW+w]; v > best {
									best = v
									bestIdx = h*p.inW + w
								}
							}
						}
						y[oi] = best
						p.maxIdx[oi] = bestIdx
					} else {
						sum := float32(0)
						for h := hstart; h < hend; h++ {
							for w := wstart; w < wend; w++ {
								sum += plane[h*p.inW+w]
							}
						}
						y[oi] = sum / float32(poolSize)
					}
					oi++
				}
			}
		}
	}
	if isMax && len(top) > 1 {
		idx := top[1].Data()
		for i, v := range p.maxIdx {
			idx[i] = float32(v)
		}
	}
}

// Backward scatters (MAX) or spreads (AVE) the top gradient back over the
// pooling windows. Overlapping windows accumulate.
func (p *Pooling) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	in, out := bottom[0], top[0]
	pp := p.params
	batch := in.Dim(0)
	dy, dx := out.Diff(), in.Diff()
	for i := range dx {
		dx[i] = 0
	}

	oi := 0
	for n := 0; n < batch; n++ {
		for c := 0; c < p.channels; c++ {
			base := (n*p.channels + c) * p.inH * p.inW
			for oh := 0; oh < p.outH; oh++ {
				for ow := 0; ow < p.outW; ow++ {
					if p.method() == PoolMax {
						if idx := p.maxIdx[oi]; idx >= 0 {
							dx[base+idx] += dy[oi]
						}
					} else {
						hstart := oh*p.strideH() - pp.PadH
						wstart := ow*p.strideW() - pp.PadW
						hend := min(hstart+pp.KernelH, p.inH+pp.PadH)
						wend := min(wstart+pp.KernelW, p.inW+pp.PadW)
						poolSize := (hend - hstart) * (wend - wstart)
						hstart, wstart = max(hstart, 0), max(wstart, 0)
						hend, wend = min(hend, p.inH), min(wend, p.inW)
						share := dy[oi] / float32(poolSize)
						for h := hstart; h < hend; h++ {
							for w := wstart; w < wend; w++ {
								dx[base+h*p.inW+w] += share
							}
						}
					}
					oi++
				}
			}
		}
	}
}
