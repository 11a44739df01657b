// Package webgpu implements the accelerated execution context of the Strata
// engine on top of go-webgpu's zero-CGO WebGPU bindings.
//
// The real implementation is compiled on windows, where wgpu-native ships
// with the toolchain image; other platforms get a stub whose Available()
// reports false, so the engine resolution policy never selects it there.
// The context owns the device, queue, and shader/pipeline caches; callers
// own the layer state and pass plain float32 slices in and out.
package webgpu

// ConvParams describes one dense 2D convolution dispatch over NCHW data.
// Dilation is absent: the resolution policy never routes dilated layers here.
type ConvParams struct {
	Batch       int
	InChannels  int
	InH, InW    int
	OutChannels int
	KernelH     int
	KernelW     int
	StrideH     int
	StrideW     int
	PadH        int
	PadW        int
	OutH, OutW  int
}

// PoolParams describes one 2D average pooling dispatch over NCHW data.
type PoolParams struct {
	Batch      int
	Channels   int
	InH, InW   int
	KernelH    int
	KernelW    int
	StrideH    int
	StrideW    int
	PadH       int
	PadW       int
	OutH, OutW int
}

// LRNParams describes one local response normalization dispatch.
// WithinChannel selects the spatial-window kernel family; otherwise the
// neighborhood runs across channels.
type LRNParams struct {
	Batch         int
	Channels      int
	Height, Width int
	LocalSize     int
	Alpha         float32
	Beta          float32
	K             float32
	WithinChannel bool
}
