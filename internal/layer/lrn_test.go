package layer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strata/internal/tensor"
)

func lrnUnderTest(t *testing.T, params *LRNSpec, bottom, top []*tensor.Blob) *LRN {
	t.Helper()
	l := newLRN(&Spec{Name: "norm", Type: "LRN", LRN: params}, params)
	require.NoError(t, l.SetUp(bottom, top))
	require.NoError(t, l.Reshape(bottom, top))
	return l
}

func TestLRNForwardAcrossChannels(t *testing.T) {
	bottom := newBlobs(t, tensor.Shape{1, 3, 1, 1})
	top := newBlobs(t, tensor.Shape{1})
	copy(bottom[0].Data(), []float32{1, 2, 3})

	params := &LRNSpec{LocalSize: 3, Alpha: 3, Beta: 0.75, K: 1}
	l := lrnUnderTest(t, params, bottom, top)
	l.Forward(bottom, top)

	// W = 3, alpha/W = 1; channel 0 sees {1,2}: scale = 1 + 1 + 4 = 6.
	out := top[0].Data()
	assert.InDelta(t, 1*math.Pow(6, -0.75), float64(out[0]), 1e-5)
	// channel 1 sees all three: scale = 1 + 1 + 4 + 9 = 15.
	assert.InDelta(t, 2*math.Pow(15, -0.75), float64(out[1]), 1e-5)
	// channel 2 sees {2,3}: scale = 1 + 4 + 9 = 14.
	assert.InDelta(t, 3*math.Pow(14, -0.75), float64(out[2]), 1e-5)
}

func TestLRNForwardWithinChannel(t *testing.T) {
	bottom := newBlobs(t, tensor.Shape{1, 1, 3, 3})
	top := newBlobs(t, tensor.Shape{1})
	data := bottom[0].Data()
	for i := range data {
		data[i] = 1
	}

	params := &LRNSpec{LocalSize: 3, Alpha: 9, Beta: 1, K: 1, NormRegion: NormWithinChannel}
	l := lrnUnderTest(t, params, bottom, top)
	l.Forward(bottom, top)

	// W = 9, alpha/W = 1. The center sees all nine ones: scale = 10.
	out := top[0].Data()
	assert.InDelta(t, 0.1, float64(out[4]), 1e-6)
	// A corner sees four ones: scale = 5.
	assert.InDelta(t, 0.2, float64(out[0]), 1e-6)
}

func TestLRNIdentityWhenAlphaTiny(t *testing.T) {
	bottom := newBlobs(t, tensor.Shape{2, 4, 2, 2})
	top := newBlobs(t, tensor.Shape{1})
	rng := rand.New(rand.NewSource(3))
	for i := range bottom[0].Data() {
		bottom[0].Data()[i] = rng.Float32()
	}

	params := &LRNSpec{LocalSize: 5, Alpha: 1e-20, Beta: 0.75, K: 1}
	l := lrnUnderTest(t, params, bottom, top)
	l.Forward(bottom, top)

	for i, v := range top[0].Data() {
		assert.InDelta(t, bottom[0].Data()[i], v, 1e-5)
	}
}

func TestLRNBackwardMatchesNumericalGradient(t *testing.T) {
	bottom := newBlobs(t, tensor.Shape{1, 3, 2, 2})
	top := newBlobs(t, tensor.Shape{1})
	rng := rand.New(rand.NewSource(5))
	for i := range bottom[0].Data() {
		bottom[0].Data()[i] = rng.Float32() + 0.5
	}

	params := &LRNSpec{LocalSize: 3, Alpha: 0.5, Beta: 0.75, K: 1}
	l := lrnUnderTest(t, params, bottom, top)
	l.Forward(bottom, top)

	// Loss = sum(y): top gradient of ones.
	for i := range top[0].Diff() {
		top[0].Diff()[i] = 1
	}
	l.Backward(top, []bool{true}, bottom)
	analytic := append([]float32(nil), bottom[0].Diff()...)

	const eps = 1e-2
	x := bottom[0].Data()
	for i := range x {
		orig := x[i]
		x[i] = orig + eps
		l.Forward(bottom, top)
		var plus float64
		for _, v := range top[0].Data() {
			plus += float64(v)
		}
		x[i] = orig - eps
		l.Forward(bottom, top)
		var minus float64
		for _, v := range top[0].Data() {
			minus += float64(v)
		}
		x[i] = orig
		numeric := (plus - minus) / (2 * eps)
		assert.InDelta(t, numeric, float64(analytic[i]), 1e-2, "dx[%d]", i)
	}
}

func TestLRNSetUpRejectsEvenLocalSize(t *testing.T) {
	bottom := newBlobs(t, tensor.Shape{1, 3, 2, 2})
	top := newBlobs(t, tensor.Shape{1})
	params := &LRNSpec{LocalSize: 4}
	l := newLRN(&Spec{Name: "norm", Type: "LRN", LRN: params}, params)
	var cfgErr *ConfigError
	require.ErrorAs(t, l.SetUp(bottom, top), &cfgErr)
	assert.Contains(t, cfgErr.Reason, "odd")
}

func TestLRNRejectsNon4DInput(t *testing.T) {
	bottom := newBlobs(t, tensor.Shape{3, 4})
	top := newBlobs(t, tensor.Shape{1})
	params := &LRNSpec{}
	l := newLRN(&Spec{Name: "norm", Type: "LRN", LRN: params}, params)
	require.NoError(t, l.SetUp(bottom, top))
	var cfgErr *ConfigError
	require.ErrorAs(t, l.Reshape(bottom, top), &cfgErr)
}
