//go:build !windows

package webgpu

import "errors"

// Context is the accelerated execution context. On this platform the webgpu
// backend is not compiled in; Available reports false and the engine
// resolution policy never constructs layers against this type, so its
// methods are unreachable and panic if called anyway.
type Context struct{}

// Available reports whether the webgpu backend is compiled in and a device
// can be obtained. Always false on this platform.
func Available() bool {
	return false
}

// Default returns the shared context. Always an error on this platform.
func Default() (*Context, error) {
	return nil, errors.New("webgpu: backend not compiled in on this platform")
}

// Release frees the context's device resources.
func (c *Context) Release() {}

func (c *Context) unavailable() {
	panic("webgpu: backend not compiled in on this platform")
}

func (c *Context) ReLUForward(x, y []float32, negSlope float32)      { c.unavailable() }
func (c *Context) ReLUBackward(x, dy, dx []float32, negSlope float32) { c.unavailable() }
func (c *Context) SigmoidForward(x, y []float32)                      { c.unavailable() }
func (c *Context) SigmoidBackward(y, dy, dx []float32)                { c.unavailable() }
func (c *Context) TanHForward(x, y []float32)                         { c.unavailable() }
func (c *Context) TanHBackward(y, dy, dx []float32)                   { c.unavailable() }

func (c *Context) SoftmaxForward(x, y []float32, outer, channels, inner int)   { c.unavailable() }
func (c *Context) SoftmaxBackward(y, dy, dx []float32, outer, channels, inner int) { c.unavailable() }

func (c *Context) ConvForward(x, w, bias, y []float32, p ConvParams)   { c.unavailable() }
func (c *Context) ConvBackwardBias(dy, db []float32, p ConvParams)     { c.unavailable() }
func (c *Context) ConvBackwardWeight(x, dy, dw []float32, p ConvParams) { c.unavailable() }
func (c *Context) ConvBackwardInput(w, dy, dx []float32, p ConvParams)  { c.unavailable() }

func (c *Context) AvePoolForward(x, y []float32, p PoolParams)  { c.unavailable() }
func (c *Context) AvePoolBackward(dy, dx []float32, p PoolParams) { c.unavailable() }

func (c *Context) LRNForward(x, y, scale []float32, p LRNParams)        { c.unavailable() }
func (c *Context) LRNBackward(x, scale, dy, dx []float32, p LRNParams)  { c.unavailable() }

func (c *Context) SliceForward(src []float32, dsts [][]float32, outer, extent, sliceSize int, widths []int) {
	c.unavailable()
}

func (c *Context) SliceBackward(srcs [][]float32, dst []float32, outer, extent, sliceSize int, widths []int) {
	c.unavailable()
}
