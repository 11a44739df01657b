package layer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strata/internal/backend/webgpu"
	"github.com/born-ml/strata/internal/tensor"
)

func newBlobs(t *testing.T, shapes ...tensor.Shape) []*tensor.Blob {
	t.Helper()
	blobs := make([]*tensor.Blob, len(shapes))
	for i, s := range shapes {
		b, err := tensor.NewBlob(s)
		require.NoError(t, err)
		blobs[i] = b
	}
	return blobs
}

func sequence(b *tensor.Blob) {
	data := b.Data()
	for i := range data {
		data[i] = float32(i)
	}
}

func sliceUnderTest(t *testing.T, params *SliceSpec, bottom, top []*tensor.Blob) *Slice {
	t.Helper()
	s := newSlice(&Spec{Name: "slicer", Type: "Slice"}, params)
	require.NoError(t, s.SetUp(bottom, top))
	require.NoError(t, s.Reshape(bottom, top))
	return s
}

func TestSliceExplicitPoints(t *testing.T) {
	bottom := newBlobs(t, tensor.Shape{2, 8})
	top := newBlobs(t, tensor.Shape{1}, tensor.Shape{1}, tensor.Shape{1})
	sequence(bottom[0])

	s := sliceUnderTest(t, &SliceSpec{SlicePoints: []int{2, 5}}, bottom, top)

	assert.Equal(t, tensor.Shape{2, 2}, top[0].Shape())
	assert.Equal(t, tensor.Shape{2, 3}, top[1].Shape())
	assert.Equal(t, tensor.Shape{2, 3}, top[2].Shape())

	s.Forward(bottom, top)
	assert.Equal(t, []float32{0, 1, 8, 9}, top[0].Data())
	assert.Equal(t, []float32{2, 3, 4, 10, 11, 12}, top[1].Data())
	assert.Equal(t, []float32{5, 6, 7, 13, 14, 15}, top[2].Data())
}

func TestSliceEvenPartition(t *testing.T) {
	bottom := newBlobs(t, tensor.Shape{1, 8})
	top := newBlobs(t, tensor.Shape{1}, tensor.Shape{1}, tensor.Shape{1}, tensor.Shape{1})
	sequence(bottom[0])

	s := sliceUnderTest(t, &SliceSpec{}, bottom, top)
	for _, tb := range top {
		assert.Equal(t, tensor.Shape{1, 2}, tb.Shape())
	}

	s.Forward(bottom, top)
	assert.Equal(t, []float32{0, 1}, top[0].Data())
	assert.Equal(t, []float32{2, 3}, top[1].Data())
	assert.Equal(t, []float32{4, 5}, top[2].Data())
	assert.Equal(t, []float32{6, 7}, top[3].Data())
}

func TestSliceUnevenExtentFatal(t *testing.T) {
	bottom := newBlobs(t, tensor.Shape{1, 7})
	top := newBlobs(t, tensor.Shape{1}, tensor.Shape{1}, tensor.Shape{1}, tensor.Shape{1})

	s := newSlice(&Spec{Name: "slicer", Type: "Slice"}, &SliceSpec{})
	require.NoError(t, s.SetUp(bottom, top))
	err := s.Reshape(bottom, top)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "slicer", cfgErr.Layer)
	assert.Contains(t, cfgErr.Reason, "not evenly divisible")
}

func TestSliceInvalidPoints(t *testing.T) {
	tests := []struct {
		name   string
		points []int
	}{
		{"zero point", []int{0, 3}},
		{"negative point", []int{-1}},
		{"decreasing", []int{5, 2}},
		{"duplicate", []int{3, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bottom := newBlobs(t, tensor.Shape{1, 8})
			top := newBlobs(t, tensor.Shape{1}, tensor.Shape{1}, tensor.Shape{1})
			s := newSlice(&Spec{Name: "slicer", Type: "Slice"}, &SliceSpec{SlicePoints: tt.points})
			var cfgErr *ConfigError
			require.ErrorAs(t, s.SetUp(bottom, top), &cfgErr)
		})
	}
}

func TestSlicePointOutOfRange(t *testing.T) {
	bottom := newBlobs(t, tensor.Shape{1, 8})
	top := newBlobs(t, tensor.Shape{1}, tensor.Shape{1})

	s := newSlice(&Spec{Name: "slicer", Type: "Slice"}, &SliceSpec{SlicePoints: []int{8}})
	require.NoError(t, s.SetUp(bottom, top))
	var cfgErr *ConfigError
	require.ErrorAs(t, s.Reshape(bottom, top), &cfgErr)
	assert.Contains(t, cfgErr.Reason, "out of range")
}

func TestSlicePointCountMismatch(t *testing.T) {
	bottom := newBlobs(t, tensor.Shape{1, 8})
	top := newBlobs(t, tensor.Shape{1}, tensor.Shape{1})

	s := newSlice(&Spec{Name: "slicer", Type: "Slice"}, &SliceSpec{SlicePoints: []int{2, 5}})
	require.NoError(t, s.SetUp(bottom, top))
	var cfgErr *ConfigError
	require.ErrorAs(t, s.Reshape(bottom, top), &cfgErr)
	assert.Contains(t, cfgErr.Reason, "require 3 top blobs")
}

func TestSliceNegativeAxis(t *testing.T) {
	bottom := newBlobs(t, tensor.Shape{2, 3, 4})
	top := newBlobs(t, tensor.Shape{1}, tensor.Shape{1})
	sequence(bottom[0])

	axis := -1
	s := sliceUnderTest(t, &SliceSpec{Axis: &axis}, bottom, top)
	assert.Equal(t, tensor.Shape{2, 3, 2}, top[0].Shape())
	assert.Equal(t, tensor.Shape{2, 3, 2}, top[1].Shape())

	s.Forward(bottom, top)
	assert.Equal(t, []float32{0, 1, 4, 5, 8, 9, 12, 13, 16, 17, 20, 21}, top[0].Data())
	assert.Equal(t, []float32{2, 3, 6, 7, 10, 11, 14, 15, 18, 19, 22, 23}, top[1].Data())
}

func TestSliceForwardBackwardRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bottom := newBlobs(t, tensor.Shape{3, 8, 4})
	top := newBlobs(t, tensor.Shape{1}, tensor.Shape{1}, tensor.Shape{1})
	for i := range bottom[0].Data() {
		bottom[0].Data()[i] = rng.Float32()
	}

	s := sliceUnderTest(t, &SliceSpec{SlicePoints: []int{2, 5}}, bottom, top)
	s.Forward(bottom, top)

	// Feed each output's values back as its gradient; the reassembled input
	// gradient must reproduce the input values exactly.
	for _, tb := range top {
		copy(tb.Diff(), tb.Data())
	}
	s.Backward(top, []bool{true}, bottom)
	assert.Equal(t, bottom[0].Data(), bottom[0].Diff())
}

func TestSliceBackwardSkipsWhenNotPropagating(t *testing.T) {
	bottom := newBlobs(t, tensor.Shape{1, 4})
	top := newBlobs(t, tensor.Shape{1}, tensor.Shape{1})
	sequence(bottom[0])

	s := sliceUnderTest(t, &SliceSpec{}, bottom, top)
	s.Forward(bottom, top)
	for _, tb := range top {
		copy(tb.Diff(), tb.Data())
	}
	s.Backward(top, []bool{false}, bottom)
	assert.Equal(t, []float32{0, 0, 0, 0}, bottom[0].Diff())
}

func TestSliceGenericAcceleratedMatch(t *testing.T) {
	if !webgpu.Available() {
		t.Skip("webgpu device not available")
	}
	ctx, err := webgpu.Default()
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(11))
	bottom := newBlobs(t, tensor.Shape{2, 8, 3})
	for i := range bottom[0].Data() {
		bottom[0].Data()[i] = rng.Float32()
	}

	params := &SliceSpec{SlicePoints: []int{2, 5}}
	genericTop := newBlobs(t, tensor.Shape{1}, tensor.Shape{1}, tensor.Shape{1})
	generic := sliceUnderTest(t, params, bottom, genericTop)
	generic.Forward(bottom, genericTop)

	accelTop := newBlobs(t, tensor.Shape{1}, tensor.Shape{1}, tensor.Shape{1})
	accel := newWebGPUSlice(&Spec{Name: "slicer", Type: "Slice"}, params, ctx)
	require.NoError(t, accel.SetUp(bottom, accelTop))
	require.NoError(t, accel.Reshape(bottom, accelTop))
	accel.Forward(bottom, accelTop)

	for i := range genericTop {
		// Pure data movement on both engines: the outputs must be
		// bit-identical, not merely close.
		assert.Equal(t, genericTop[i].Data(), accelTop[i].Data())
	}

	for i, tb := range accelTop {
		copy(tb.Diff(), genericTop[i].Data())
		copy(genericTop[i].Diff(), genericTop[i].Data())
	}
	accel.Backward(accelTop, []bool{true}, bottom)
	accelDiff := append([]float32(nil), bottom[0].Diff()...)
	bottom[0].ZeroDiff()
	generic.Backward(genericTop, []bool{true}, bottom)
	assert.Equal(t, bottom[0].Diff(), accelDiff)
}
