package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireDevice(t *testing.T) *Context {
	t.Helper()
	if !Available() {
		t.Skip("webgpu device not available")
	}
	ctx, err := Default()
	require.NoError(t, err)
	return ctx
}

func TestReLUForward(t *testing.T) {
	ctx := requireDevice(t)

	x := []float32{-2, -1, 0, 1, 2}
	y := make([]float32, len(x))
	ctx.ReLUForward(x, y, 0)
	assert.Equal(t, []float32{0, 0, 0, 1, 2}, y)

	ctx.ReLUForward(x, y, 0.5)
	assert.Equal(t, []float32{-1, -0.5, 0, 1, 2}, y)
}

func TestReLUBackward(t *testing.T) {
	ctx := requireDevice(t)

	x := []float32{-2, -1, 0, 1, 2}
	dy := []float32{1, 1, 1, 1, 1}
	dx := make([]float32, len(x))
	ctx.ReLUBackward(x, dy, dx, 0)
	assert.Equal(t, []float32{0, 0, 0, 1, 1}, dx)
}

func TestSigmoidForward(t *testing.T) {
	ctx := requireDevice(t)

	x := []float32{0, 100, -100}
	y := make([]float32, len(x))
	ctx.SigmoidForward(x, y)
	assert.InDelta(t, 0.5, y[0], 1e-6)
	assert.InDelta(t, 1.0, y[1], 1e-6)
	assert.InDelta(t, 0.0, y[2], 1e-6)
}

func TestSoftmaxForwardSumsToOne(t *testing.T) {
	ctx := requireDevice(t)

	// 2 outer groups, 3 channels, 2 inner positions.
	x := []float32{
		1, 2, 3, 4, 5, 6,
		-1, 0, 1, 2, 3, 4,
	}
	y := make([]float32, len(x))
	ctx.SoftmaxForward(x, y, 2, 3, 2)

	for o := 0; o < 2; o++ {
		for i := 0; i < 2; i++ {
			var sum float32
			for c := 0; c < 3; c++ {
				sum += y[o*6+c*2+i]
			}
			assert.InDelta(t, 1.0, sum, 1e-5)
		}
	}
}

func TestAvePoolForward(t *testing.T) {
	ctx := requireDevice(t)

	// 1x1x2x2 input, 2x2 kernel, stride 1, no padding.
	x := []float32{1, 2, 3, 4}
	y := make([]float32, 1)
	ctx.AvePoolForward(x, y, PoolParams{
		Batch: 1, Channels: 1, InH: 2, InW: 2,
		KernelH: 2, KernelW: 2, StrideH: 1, StrideW: 1,
		OutH: 1, OutW: 1,
	})
	assert.InDelta(t, 2.5, y[0], 1e-6)
}

func TestSliceRoundTrip(t *testing.T) {
	ctx := requireDevice(t)

	// 2 outer rows, extent 8, slice size 1, widths 2/3/3.
	src := make([]float32, 16)
	for i := range src {
		src[i] = float32(i)
	}
	widths := []int{2, 3, 3}
	dsts := [][]float32{make([]float32, 4), make([]float32, 6), make([]float32, 6)}
	ctx.SliceForward(src, dsts, 2, 8, 1, widths)

	assert.Equal(t, []float32{0, 1, 8, 9}, dsts[0])
	assert.Equal(t, []float32{2, 3, 4, 10, 11, 12}, dsts[1])
	assert.Equal(t, []float32{5, 6, 7, 13, 14, 15}, dsts[2])

	back := make([]float32, 16)
	ctx.SliceBackward(dsts, back, 2, 8, 1, widths)
	assert.Equal(t, src, back)
}
