package layer

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/strata/internal/tensor"
)

// Convolution is the generic 2D convolution over NCHW blobs.
//
// Weight shape: [num_output, in_channels, kernel_h, kernel_w]
// Bias shape:   [num_output]
//
// The reference kernels are direct loops and support dilation, which the
// accelerated implementation rejects at resolution time.
type Convolution struct {
	baseLayer
	params *ConvolutionSpec

	inChannels int
	weight     *tensor.Blob
	bias       *tensor.Blob

	outH, outW     int
	inH, inW       int
	biasMultiplier []float32 // ones, one per output spatial position
}

func newConvolution(spec *Spec) *Convolution {
	return &Convolution{baseLayer: baseLayer{spec: spec}, params: spec.Convolution}
}

// Type returns "Convolution".
func (c *Convolution) Type() string { return "Convolution" }

// ExactNumBottomBlobs returns 1.
func (c *Convolution) ExactNumBottomBlobs() int { return 1 }

// ExactNumTopBlobs returns 1.
func (c *Convolution) ExactNumTopBlobs() int { return 1 }

// Blobs returns the weight blob and, when configured, the bias blob.
func (c *Convolution) Blobs() []*tensor.Blob {
	if c.bias == nil {
		return []*tensor.Blob{c.weight}
	}
	return []*tensor.Blob{c.weight, c.bias}
}

func (c *Convolution) strideH() int   { return defaultOne(c.params.StrideH) }
func (c *Convolution) strideW() int   { return defaultOne(c.params.StrideW) }
func (c *Convolution) dilationH() int { return defaultOne(c.params.DilationH) }
func (c *Convolution) dilationW() int { return defaultOne(c.params.DilationW) }

func (c *Convolution) hasBias() bool {
	return c.params.BiasTerm == nil || *c.params.BiasTerm
}

func defaultOne(v int) int {
	if v == 0 {
		return 1
	}
	return v
}

// SetUp validates the parameters and allocates the learned blobs with
// Xavier-uniform weights and zero bias.
func (c *Convolution) SetUp(bottom, top []*tensor.Blob) error {
	p := c.params
	if p.NumOutput <= 0 {
		return configErrorf(c.name(), "convolution num_output must be positive, got %d", p.NumOutput)
	}
	if p.KernelH <= 0 || p.KernelW <= 0 {
		return configErrorf(c.name(), "convolution kernel must be positive, got %dx%d", p.KernelH, p.KernelW)
	}
	in := bottom[0]
	if in.NumAxes() != 4 {
		return configErrorf(c.name(), "convolution expects a 4D NCHW input, got %dD", in.NumAxes())
	}
	c.inChannels = in.Dim(1)

	weight, err := tensor.NewBlob(tensor.Shape{p.NumOutput, c.inChannels, p.KernelH, p.KernelW})
	if err != nil {
		return configErrorf(c.name(), "weight: %v", err)
	}
	c.weight = weight
	fanIn := float64(c.inChannels * p.KernelH * p.KernelW)
	bound := float32(math.Sqrt(3.0 / fanIn))
	data := weight.Data()
	for i := range data {
		data[i] = (rand.Float32()*2 - 1) * bound
	}

	if c.hasBias() {
		bias, err := tensor.NewBlob(tensor.Shape{p.NumOutput})
		if err != nil {
			return configErrorf(c.name(), "bias: %v", err)
		}
		c.bias = bias
	}
	return nil
}

// Reshape computes the output spatial extent from the input shape.
func (c *Convolution) Reshape(bottom, top []*tensor.Blob) error {
	in := bottom[0]
	if in.NumAxes() != 4 {
		return configErrorf(c.name(), "convolution expects a 4D NCHW input, got %dD", in.NumAxes())
	}
	if in.Dim(1) != c.inChannels {
		return configErrorf(c.name(), "input channels changed from %d to %d", c.inChannels, in.Dim(1))
	}
	p := c.params
	c.inH, c.inW = in.Dim(2), in.Dim(3)
	extH := c.dilationH()*(p.KernelH-1) + 1
	extW := c.dilationW()*(p.KernelW-1) + 1
	c.outH = (c.inH+2*p.PadH-extH)/c.strideH() + 1
	c.outW = (c.inW+2*p.PadW-extW)/c.strideW() + 1
	if c.outH <= 0 || c.outW <= 0 {
		return configErrorf(c.name(), "kernel %dx%d (dilation %dx%d) does not fit %dx%d input",
			p.KernelH, p.KernelW, c.dilationH(), c.dilationW(), c.inH, c.inW)
	}
	if err := top[0].Reshape(tensor.Shape{in.Dim(0), p.NumOutput, c.outH, c.outW}); err != nil {
		return configErrorf(c.name(), "reshape: %v", err)
	}
	spatial := c.outH * c.outW
	if len(c.biasMultiplier) != spatial {
		c.biasMultiplier = make([]float32, spatial)
		for i := range c.biasMultiplier {
			c.biasMultiplier[i] = 1
		}
	}
	return nil
}

// Forward runs the direct convolution, then adds the bias to each output
// plane through the ones multiplier.
func (c *Convolution) Forward(bottom, top []*tensor.Blob) {
	in, out := bottom[0], top[0]
	p := c.params
	batch := in.Dim(0)
	x, w, y := in.Data(), c.weight.Data(), out.Data()
	spatial := c.outH * c.outW

	for n := 0; n < batch; n++ {
		for co := 0; co < p.NumOutput; co++ {
			for oh := 0; oh < c.outH; oh++ {
				for ow := 0; ow < c.outW; ow++ {
					sum := float32(0)
					for ci := 0; ci < c.inChannels; ci++ {
						for kh := 0; kh < p.KernelH; kh++ {
							ih := oh*c.strideH() - p.PadH + kh*c.dilationH()
							if ih < 0 || ih >= c.inH {
								continue
							}
							for kw := 0; kw < p.KernelW; kw++ {
								iw := ow*c.strideW() - p.PadW + kw*c.dilationW()
								if iw < 0 || iw >= c.inW {
									continue
								}
								xi := ((n*c.inChannels+ci)*c.inH+ih)*c.inW + iw
								wi := ((co*c.inChannels+ci)*p.KernelH+kh)*p.KernelW + kw
								sum += x[xi] * w[wi]
							}
						}
					}
					y[((n*p.NumOutput+co)*c.outH+oh)*c.outW+ow] = sum
				}
			}
		}
		if c.bias != nil {
			b := c.bias.Data()
			ones := blas32.Vector{N: spatial, Inc: 1, Data: c.biasMultiplier}
			for co := 0; co < p.NumOutput; co++ {
				plane := y[(n*p.NumOutput+co)*spatial:]
				blas32.Axpy(b[co], ones, blas32.Vector{N: spatial, Inc: 1, Data: plane})
			}
		}
	}
}

// Backward assigns the input gradient and accumulates the parameter
// gradients, matching the convention that parameter diffs sum across calls
// until the solver clears them.
func (c *Convolution) Backward(top []*tensor.Blob, propagateDown []bool, bottom []*tensor.Blob) {
	in, out := bottom[0], top[0]
	p := c.params
	batch := in.Dim(0)
	x, w, dy := in.Data(), c.weight.Data(), out.Diff()
	dw := c.weight.Diff()
	spatial := c.outH * c.outW

	if c.bias != nil {
		db := c.bias.Diff()
		ones := blas32.Vector{N: spatial, Inc: 1, Data: c.biasMultiplier}
		for n := 0; n < batch; n++ {
			for co := 0; co < p.NumOutput; co++ {
				plane := dy[(n*p.NumOutput+co)*spatial:]
				db[co] += blas32.Dot(blas32.Vector{N: spatial, Inc: 1, Data: plane}, ones)
			}
		}
	}

	var dx []float32
	if propagateDown[0] {
		dx = in.Diff()
		for i := range dx {
			dx[i] = 0
		}
	}

	for n := 0; n < batch; n++ {
		for co := 0; co < p.NumOutput; co++ {
			for oh := 0; oh < c.outH; oh++ {
				for ow := 0; ow < c.outW; ow++ {
					g := dy[((n*p.NumOutput+co)*c.outH+oh)*c.outW+ow]
					if g == 0 {
						continue
					}
					for ci := 0; ci < c.inChannels; ci++ {
						for kh := 0; kh < p.KernelH; kh++ {
							ih := oh*c.strideH() - p.PadH + kh*c.dilationH()
							if ih < 0 || ih >= c.inH {
								continue
							}
							for kw := 0; kw < p.KernelW; kw++ {
								iw := ow*c.strideW() - p.PadW + kw*c.dilationW()
								if iw < 0 || iw >= c.inW {
									continue
								}
								xi := ((n*c.inChannels+ci)*c.inH+ih)*c.inW + iw
								wi := ((co*c.inChannels+ci)*p.KernelH+kh)*p.KernelW + kw
								dw[wi] += x[xi] * g
								if dx != nil {
									dx[xi] += w[wi] * g
								}
							}
						}
					}
				}
			}
		}
	}
}
