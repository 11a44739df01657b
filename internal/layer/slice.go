package layer

import (
	"github.com/born-ml/strata/internal/tensor"
)

// Slice partitions its single input blob along one axis into several output
// blobs. Explicit slice points give unequal partition widths; without them
// the axis extent must divide evenly by the number of outputs.
//
// The copy is pure data relocation: for each output, for each outer position,
// one contiguous run of sliceSize*width elements moves between the input and
// the output. Backward concatenates the output gradients back into their
// original offsets, which covers the input gradient exactly once when the
// reshape invariant (sum of widths == axis extent) holds.
type Slice struct {
	baseLayer
	params *SliceSpec

	axis        int
	slicePoints []int
	numSlices   int
	sliceSize   int // product of dims after axis
	outerCount  int // product of dims before axis
}

func newSlice(spec *Spec, params *SliceSpec) *Slice {
	return &Slice{baseLayer: baseLayer{spec: spec}, params: params}
}

// Type returns "Slice".
func (s *Slice) Type() string { return "Slice" }

// ExactNumBottomBlobs returns 1: slice always consumes a single blob.
func (s *Slice) ExactNumBottomBlobs() int { return 1 }

// MinTopBlobs returns 1.
func (s *Slice) MinTopBlobs() int { return 1 }

// SetUp validates the slice points' ordering invariant.
func (s *Slice) SetUp(bottom, top []*tensor.Blob) error {
	s.slicePoints = append([]int(nil), s.params.SlicePoints...)
	for i, p := range s.slicePoints {
		if p <= 0 {
			return configErrorf(s.name(), "slice_point %d must be positive, got %d", i, p)
		}
		if i > 0 && p <= s.slicePoints[i-1] {
			return configErrorf(s.name(), "slice_point values must be strictly increasing, got %v", s.slicePoints)
		}
	}
	return nil
}

// Reshape derives the partition bookkeeping from the current input shape and
// sets each output's shape. The sum of partition widths along the axis must
// equal the input's axis extent; this is re-verified on every call.
func (s *Slice) Reshape(bottom, top []*tensor.Blob) error {
	in := bottom[0]
	axis, err := in.Shape().CanonicalAxis(s.params.EffectiveAxis())
	if err != nil {
		return configErrorf(s.name(), "slice axis: %v", err)
	}
	s.axis = axis
	s.numSlices = len(top)
	s.outerCount = in.CountRange(0, axis)
	s.sliceSize = in.CountFrom(axis + 1)
	extent := in.Dim(axis)

	widths, err := s.partitionWidths(extent, len(top))
	if err != nil {
		return err
	}

	total := 0
	for i, t := range top {
		shape := in.Shape().Clone()
		shape[axis] = widths[i]
		if err := t.Reshape(shape); err != nil {
			return configErrorf(s.name(), "slice output %d: %v", i, err)
		}
		total += widths[i]
	}
	if total != extent {
		return configErrorf(s.name(), "slice outputs cover %d of %d along axis %d", total, extent, axis)
	}
	return nil
}

// partitionWidths computes the extent of each output along the slice axis.
func (s *Slice) partitionWidths(extent, numTops int) ([]int, error) {
	widths := make([]int, numTops)
	if len(s.slicePoints) == 0 {
		if extent%numTops != 0 {
			return nil, configErrorf(s.name(), "axis extent %d not evenly divisible into %d slices", extent, numTops)
		}
		for i := range widths {
			widths[i] = extent / numTops
		}
		return widths, nil
	}
	if len(s.slicePoints) != numTops-1 {
		return nil, configErrorf(s.name(), "%d slice points require %d top blobs, got %d",
			len(s.slicePoints), len(s.slicePoints)+1, numTops)
	}
	prev := 0
	for i, p := range s.slicePoints {
		if p >= extent {
			return nil, configErrorf(s.name(), "slice_point %d out of range for axis extent %d", p, extent)
		}
		widths[i] = p - prev
		prev = p
	}
	widths[numTops-1] = extent - prev
	return widths, nil
}

// Forward copies each partition's contiguous runs out of the input.
func (s *Slice) Forward(bottom, top []*tensor.Blob) {
	in := bottom[0]
	extent := in.Dim(s.axis)
	data := in.Data()

	offset := 0
	for _, t := range top {
		width := t.Dim(s.axis)
		out := t.Data()
		run := width * s.sliceSize
		for n := 0; n < s.outerCount; n++ {
			src := (n*extent + offset) * s.sliceSize
			copy(out[n*run:(n+1)*run], data[src:src+run])
		}
		offset += width
	}
}

// Backward concatenates the output gradients back into the input gradient
// buffer at their original offsets.
func (s *Slice) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	if !propagateDown[0] {
		return
	}
	in := bottom[0]
	extent := in.Dim(s.axis)
	diff := in.Diff()

	offset := 0
	for _, t := range top {
		width := t.Dim(s.axis)
		grad := t.Diff()
		run := width * s.sliceSize
		for n := 0; n < s.outerCount; n++ {
			dst := (n*extent + offset) * s.sliceSize
			copy(diff[dst:dst+run], grad[n*run:(n+1)*run])
		}
		offset += width
	}
}
