package layer

import (
	"math"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/strata/internal/tensor"
)

// Softmax is the generic softmax over a configurable axis. Positions before
// the axis form independent outer groups; positions after it are independent
// inner columns, each normalized over the axis extent.
type Softmax struct {
	baseLayer
	params *SoftmaxSpec

	axis     int
	outer    int
	channels int
	inner    int
}

func newSoftmax(spec *Spec, params *SoftmaxSpec) *Softmax {
	return &Softmax{baseLayer: baseLayer{spec: spec}, params: params}
}

// Type returns "Softmax".
func (s *Softmax) Type() string { return "Softmax" }

// ExactNumBottomBlobs returns 1.
func (s *Softmax) ExactNumBottomBlobs() int { return 1 }

// ExactNumTopBlobs returns 1.
func (s *Softmax) ExactNumTopBlobs() int { return 1 }

// SetUp is a no-op: all bookkeeping is shape-dependent.
func (s *Softmax) SetUp(bottom, top []*tensor.Blob) error {
	return nil
}

// Reshape resolves the axis against the current input shape.
func (s *Softmax) Reshape(bottom, top []*tensor.Blob) error {
	in := bottom[0]
	axis, err := in.Shape().CanonicalAxis(s.params.EffectiveAxis())
	if err != nil {
		return configErrorf(s.name(), "softmax axis: %v", err)
	}
	s.axis = axis
	s.outer = in.CountRange(0, axis)
	s.channels = in.Dim(axis)
	s.inner = in.CountFrom(axis + 1)
	if err := top[0].ReshapeLike(in); err != nil {
		return configErrorf(s.name(), "reshape: %v", err)
	}
	return nil
}

// column returns the strided vector over the softmax axis for one outer
// group and inner position.
func (s *Softmax) column(data []float32, o, i int) blas32.Vector {
	start := o*s.channels*s.inner + i
	return blas32.Vector{N: s.channels, Inc: s.inner, Data: data[start:]}
}

// Forward computes a numerically stable softmax along the axis.
func (s *Softmax) Forward(bottom, top []*tensor.Blob) {
	in, out := bottom[0].Data(), top[0].Data()
	for o := 0; o < s.outer; o++ {
		for i := 0; i < s.inner; i++ {
			src := s.column(in, o, i)
			dst := s.column(out, o, i)

			maxVal := float32(math.Inf(-1))
			for c := 0; c < s.channels; c++ {
				if v := src.Data[c*s.inner]; v > maxVal {
					maxVal = v
				}
			}
			sum := float32(0)
			for c := 0; c < s.channels; c++ {
				e := float32(math.Exp(float64(src.Data[c*s.inner] - maxVal)))
				dst.Data[c*s.inner] = e
				sum += e
			}
			blas32.Scal(1/sum, dst)
		}
	}
}

// Backward computes dx = (dy - dot(dy, y)) * y along the axis.
func (s *Softmax) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	out, grad, diff := top[0].Data(), top[0].Diff(), bottom[0].Diff()
	for o := 0; o < s.outer; o++ {
		for i := 0; i < s.inner; i++ {
			y := s.column(out, o, i)
			dy := s.column(grad, o, i)
			dx := s.column(diff, o, i)

			dot := blas32.Dot(dy, y)
			for c := 0; c < s.channels; c++ {
				k := c * s.inner
				dx.Data[k] = (dy.Data[k] - dot) * y.Data[k]
			}
		}
	}
}
