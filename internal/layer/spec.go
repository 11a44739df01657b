package layer

// Spec describes one layer of a network: its name (for diagnostics), its type
// (the registry key), the named blobs it consumes and produces, and exactly
// one operator-specific sub-spec carrying parameters and an engine selector.
//
// Specs are built once, by the network builder or by decoding JSON, and are
// read-only afterwards; layers may retain the pointer.
type Spec struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Bottoms []string `json:"bottom,omitempty"`
	Tops    []string `json:"top,omitempty"`

	Convolution *ConvolutionSpec `json:"convolution,omitempty"`
	Pooling     *PoolingSpec     `json:"pooling,omitempty"`
	LRN         *LRNSpec         `json:"lrn,omitempty"`
	ReLU        *ReLUSpec        `json:"relu,omitempty"`
	Sigmoid     *SigmoidSpec     `json:"sigmoid,omitempty"`
	TanH        *TanHSpec        `json:"tanh,omitempty"`
	Softmax     *SoftmaxSpec     `json:"softmax,omitempty"`
	Slice       *SliceSpec       `json:"slice,omitempty"`
}

// ConvolutionSpec parameterizes a 2D convolution over NCHW blobs.
type ConvolutionSpec struct {
	Engine    Engine `json:"engine,omitempty"`
	NumOutput int    `json:"num_output"`
	KernelH   int    `json:"kernel_h"`
	KernelW   int    `json:"kernel_w"`
	StrideH   int    `json:"stride_h,omitempty"` // 0 means 1
	StrideW   int    `json:"stride_w,omitempty"`
	PadH      int    `json:"pad_h,omitempty"`
	PadW      int    `json:"pad_w,omitempty"`
	DilationH int    `json:"dilation_h,omitempty"` // 0 means 1
	DilationW int    `json:"dilation_w,omitempty"`
	BiasTerm  *bool  `json:"bias_term,omitempty"` // nil means true
}

// HasDilation reports whether any dilation factor exceeds 1.
func (c *ConvolutionSpec) HasDilation() bool {
	return c.DilationH > 1 || c.DilationW > 1
}

// PoolMethod selects the pooling reduction.
type PoolMethod string

// Supported pooling methods.
const (
	PoolMax PoolMethod = "MAX"
	PoolAve PoolMethod = "AVE"
)

// PoolingSpec parameterizes 2D pooling over NCHW blobs.
type PoolingSpec struct {
	Engine  Engine     `json:"engine,omitempty"`
	Method  PoolMethod `json:"method,omitempty"` // empty means MAX
	KernelH int        `json:"kernel_h"`
	KernelW int        `json:"kernel_w"`
	StrideH int        `json:"stride_h,omitempty"` // 0 means 1
	StrideW int        `json:"stride_w,omitempty"`
	PadH    int        `json:"pad_h,omitempty"`
	PadW    int        `json:"pad_w,omitempty"`
}

// NormRegion selects the neighborhood of local response normalization.
type NormRegion string

// Supported normalization regions.
const (
	// NormAcrossChannels normalizes over adjacent channels at each spatial
	// position.
	NormAcrossChannels NormRegion = "ACROSS_CHANNELS"
	// NormWithinChannel normalizes over a spatial window within each channel.
	NormWithinChannel NormRegion = "WITHIN_CHANNEL"
)

// LRNSpec parameterizes local response normalization.
type LRNSpec struct {
	Engine     Engine     `json:"engine,omitempty"`
	LocalSize  int        `json:"local_size,omitempty"` // 0 means 5
	Alpha      float32    `json:"alpha,omitempty"`      // 0 means 1
	Beta       float32    `json:"beta,omitempty"`       // 0 means 0.75
	K          float32    `json:"k,omitempty"`          // 0 means 1
	NormRegion NormRegion `json:"norm_region,omitempty"`
}

// EffectiveLocalSize returns LocalSize with its default applied.
func (l *LRNSpec) EffectiveLocalSize() int {
	if l.LocalSize == 0 {
		return 5
	}
	return l.LocalSize
}

// EffectiveAlpha returns Alpha with its default applied.
func (l *LRNSpec) EffectiveAlpha() float32 {
	if l.Alpha == 0 {
		return 1
	}
	return l.Alpha
}

// EffectiveBeta returns Beta with its default applied.
func (l *LRNSpec) EffectiveBeta() float32 {
	if l.Beta == 0 {
		return 0.75
	}
	return l.Beta
}

// EffectiveK returns K with its default applied.
func (l *LRNSpec) EffectiveK() float32 {
	if l.K == 0 {
		return 1
	}
	return l.K
}

// EffectiveRegion returns NormRegion with its default applied.
func (l *LRNSpec) EffectiveRegion() NormRegion {
	if l.NormRegion == "" {
		return NormAcrossChannels
	}
	return l.NormRegion
}

// ReLUSpec parameterizes the rectifier activation.
type ReLUSpec struct {
	Engine Engine `json:"engine,omitempty"`
	// NegativeSlope scales negative inputs (0 = standard ReLU).
	NegativeSlope float32 `json:"negative_slope,omitempty"`
}

// SigmoidSpec parameterizes the sigmoid activation.
type SigmoidSpec struct {
	Engine Engine `json:"engine,omitempty"`
}

// TanHSpec parameterizes the hyperbolic-tangent activation.
type TanHSpec struct {
	Engine Engine `json:"engine,omitempty"`
}

// SoftmaxSpec parameterizes softmax.
type SoftmaxSpec struct {
	Engine Engine `json:"engine,omitempty"`
	// Axis is the canonical axis to normalize over. Defaults to 1 (channels).
	Axis *int `json:"axis,omitempty"`
}

// EffectiveAxis returns Axis with its default applied.
func (s *SoftmaxSpec) EffectiveAxis() int {
	if s.Axis == nil {
		return 1
	}
	return *s.Axis
}

// SliceSpec parameterizes the slice operator, which partitions its input
// along one axis into several outputs.
type SliceSpec struct {
	Engine Engine `json:"engine,omitempty"`
	// Axis is the axis to partition. Negative values count from the end.
	// Defaults to 1 (channels).
	Axis *int `json:"axis,omitempty"`
	// SlicePoints are explicit partition boundaries, strictly increasing,
	// each strictly inside (0, extent). Empty means equal partitions: the
	// axis extent must then divide evenly by the number of outputs.
	SlicePoints []int `json:"slice_point,omitempty"`
}

// EffectiveAxis returns Axis with its default applied.
func (s *SliceSpec) EffectiveAxis() int {
	if s.Axis == nil {
		return 1
	}
	return *s.Axis
}
