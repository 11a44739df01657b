package layer

import (
	"math"

	"github.com/born-ml/strata/internal/tensor"
)

// LRN is the generic local response normalization layer over NCHW blobs.
//
// For each element i with neighborhood win(i):
//
//	scale_i = k + (alpha/W) * sum_{j in win(i)} x_j^2
//	y_i     = x_i * scale_i^(-beta)
//
// Across-channel mode takes win(i) over adjacent channels at the same spatial
// position with W = local_size; within-channel mode takes a local_size x
// local_size spatial window inside the channel with W = local_size^2.
// The scale buffer is retained between Forward and Backward.
type LRN struct {
	baseLayer
	params *LRNSpec

	channels int
	height   int
	width    int
	scale    []float32
}

func newLRN(spec *Spec, params *LRNSpec) *LRN {
	return &LRN{baseLayer: baseLayer{spec: spec}, params: params}
}

// Type returns "LRN".
func (l *LRN) Type() string { return "LRN" }

// ExactNumBottomBlobs returns 1.
func (l *LRN) ExactNumBottomBlobs() int { return 1 }

// ExactNumTopBlobs returns 1.
func (l *LRN) ExactNumTopBlobs() int { return 1 }

// SetUp validates the neighborhood size, which must be odd so the window is
// centered.
func (l *LRN) SetUp(bottom, top []*tensor.Blob) error {
	if l.params.EffectiveLocalSize()%2 == 0 {
		return configErrorf(l.name(), "lrn local_size must be odd, got %d", l.params.EffectiveLocalSize())
	}
	switch l.params.EffectiveRegion() {
	case NormAcrossChannels, NormWithinChannel:
	default:
		return configErrorf(l.name(), "unknown norm region %q", l.params.NormRegion)
	}
	return nil
}

// Reshape sizes the output and the retained scale buffer like the input.
func (l *LRN) Reshape(bottom, top []*tensor.Blob) error {
	in := bottom[0]
	if in.NumAxes() != 4 {
		return configErrorf(l.name(), "lrn expects a 4D NCHW input, got %dD", in.NumAxes())
	}
	l.channels, l.height, l.width = in.Dim(1), in.Dim(2), in.Dim(3)
	if err := top[0].ReshapeLike(in); err != nil {
		return configErrorf(l.name(), "reshape: %v", err)
	}
	n := in.Count()
	if cap(l.scale) < n {
		l.scale = make([]float32, n)
	}
	l.scale = l.scale[:n]
	return nil
}

// normalizer returns W, the neighborhood-size divisor of alpha.
func (l *LRN) normalizer() float32 {
	size := l.params.EffectiveLocalSize()
	if l.params.EffectiveRegion() == NormWithinChannel {
		return float32(size * size)
	}
	return float32(size)
}

// forEachNeighbor visits the indices in win(i) for the element at (n, c, h, w).
func (l *LRN) forEachNeighbor(n, c, h, w int, visit func(idx int)) {
	half := l.params.EffectiveLocalSize() / 2
	if l.params.EffectiveRegion() == NormAcrossChannels {
		lo, hi := max(c-half, 0), min(c+half, l.channels-1)
		for j := lo; j <= hi; j++ {
			visit(((n*l.channels+j)*l.height+h)*l.width + w)
		}
		return
	}
	hlo, hhi := max(h-half, 0), min(h+half, l.height-1)
	wlo, whi := max(w-half, 0), min(w+half, l.width-1)
	for hh := hlo; hh <= hhi; hh++ {
		for ww := wlo; ww <= whi; ww++ {
			visit(((n*l.channels+c)*l.height+hh)*l.width + ww)
		}
	}
}

// Forward computes the scale buffer and the normalized output.
func (l *LRN) Forward(bottom, top []*tensor.Blob) {
	in, out := bottom[0], top[0]
	x, y := in.Data(), out.Data()
	alphaOverW := l.params.EffectiveAlpha() / l.normalizer()
	beta := float64(l.params.EffectiveBeta())
	k := l.params.EffectiveK()
	batch := in.Dim(0)

	i := 0
	for n := 0; n < batch; n++ {
		for c := 0; c < l.channels; c++ {
			for h := 0; h < l.height; h++ {
				for w := 0; w < l.width; w++ {
					sum := float32(0)
					l.forEachNeighbor(n, c, h, w, func(j int) {
						sum += x[j] * x[j]
					})
					l.scale[i] = k + alphaOverW*sum
					y[i] = x[i] * float32(math.Pow(float64(l.scale[i]), -beta))
					i++
				}
			}
		}
	}
}

// Backward scatters each output's gradient over its neighborhood:
//
//	dx_j += dy_i * scale_i^(-beta) * [i == j]
//	      - dy_i * y_i_preterm * (2*alpha*beta/W) * x_j   for j in win(i)
//
// where y_i_preterm = x_i * scale_i^(-beta-1).
func (l *LRN) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	in, out := bottom[0], top[0]
	x, dy, dx := in.Data(), out.Diff(), in.Diff()
	for i := range dx {
		dx[i] = 0
	}
	alphaOverW := l.params.EffectiveAlpha() / l.normalizer()
	beta := l.params.EffectiveBeta()
	batch := in.Dim(0)

	i := 0
	for n := 0; n < batch; n++ {
		for c := 0; c < l.channels; c++ {
			for h := 0; h < l.height; h++ {
				for w := 0; w < l.width; w++ {
					scalePow := float32(math.Pow(float64(l.scale[i]), -float64(beta)))
					dx[i] += dy[i] * scalePow
					coeff := dy[i] * x[i] * scalePow / l.scale[i] * 2 * alphaOverW * beta
					l.forEachNeighbor(n, c, h, w, func(j int) {
						dx[j] -= coeff * x[j]
					})
					i++
				}
			}
		}
	}
}
