//go:build windows

package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

// run executes one compute dispatch: inputs are bound read-only in order,
// outputs read_write after them, and the uniform params block last, matching
// the binding layout every shader in this package uses. Outputs are read
// back into the caller's slices before returning.
func (c *Context) run(name, code string, inputs, outputs [][]float32, words []uint32, groups uint32) {
	entries := make([]wgpu.BindGroupEntry, 0, len(inputs)+len(outputs)+1)
	buffers := make([]*wgpu.Buffer, 0, len(inputs)+len(outputs)+1)
	binding := uint32(0)

	for _, in := range inputs {
		buf := c.uploadBuffer(in, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		buffers = append(buffers, buf)
		entries = append(entries, storageEntry(binding, buf, len(in)))
		binding++
	}

	outBuffers := make([]*wgpu.Buffer, len(outputs))
	for i, out := range outputs {
		buf := c.emptyBuffer(len(out), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
		outBuffers[i] = buf
		buffers = append(buffers, buf)
		entries = append(entries, storageEntry(binding, buf, len(out)))
		binding++
	}

	paramsBuf := c.uniformBuffer(words)
	buffers = append(buffers, paramsBuf)
	alignedSize := (uint64(len(words)*4) + 15) &^ 15
	entries = append(entries, wgpu.BufferBindingEntry(binding, paramsBuf, 0, alignedSize))

	c.dispatch(name, code, entries, groups, 1, 1)

	for i, out := range outputs {
		if err := c.readBack(outBuffers[i], out); err != nil {
			panic(fmt.Sprintf("webgpu: %s readback failed: %v", name, err))
		}
	}

	for _, buf := range buffers {
		buf.Release()
	}
}

func (c *Context) ReLUForward(x, y []float32, negSlope float32) {
	words := []uint32{uint32(len(x)), f32bits(negSlope)}
	c.run("relu_forward", reluForwardShader, [][]float32{x}, [][]float32{y}, words, groups1D(len(x)))
}

func (c *Context) ReLUBackward(x, dy, dx []float32, negSlope float32) {
	words := []uint32{uint32(len(x)), f32bits(negSlope)}
	c.run("relu_backward", reluBackwardShader, [][]float32{x, dy}, [][]float32{dx}, words, groups1D(len(x)))
}

func (c *Context) SigmoidForward(x, y []float32) {
	words := []uint32{uint32(len(x))}
	c.run("sigmoid_forward", sigmoidForwardShader, [][]float32{x}, [][]float32{y}, words, groups1D(len(x)))
}

func (c *Context) SigmoidBackward(y, dy, dx []float32) {
	words := []uint32{uint32(len(y))}
	c.run("sigmoid_backward", sigmoidBackwardShader, [][]float32{y, dy}, [][]float32{dx}, words, groups1D(len(y)))
}

func (c *Context) TanHForward(x, y []float32) {
	words := []uint32{uint32(len(x))}
	c.run("tanh_forward", tanhForwardShader, [][]float32{x}, [][]float32{y}, words, groups1D(len(x)))
}

func (c *Context) TanHBackward(y, dy, dx []float32) {
	words := []uint32{uint32(len(y))}
	c.run("tanh_backward", tanhBackwardShader, [][]float32{y, dy}, [][]float32{dx}, words, groups1D(len(y)))
}

func (c *Context) SoftmaxForward(x, y []float32, outer, channels, inner int) {
	words := []uint32{uint32(outer), uint32(channels), uint32(inner)}
	c.run("softmax_forward", softmaxForwardShader, [][]float32{x}, [][]float32{y}, words, groups1D(outer*inner))
}

func (c *Context) SoftmaxBackward(y, dy, dx []float32, outer, channels, inner int) {
	words := []uint32{uint32(outer), uint32(channels), uint32(inner)}
	c.run("softmax_backward", softmaxBackwardShader, [][]float32{y, dy}, [][]float32{dx}, words, groups1D(outer*inner))
}

func convWords(p ConvParams) []uint32 {
	return []uint32{
		uint32(p.Batch), uint32(p.InChannels), uint32(p.InH), uint32(p.InW),
		uint32(p.OutChannels), uint32(p.KernelH), uint32(p.KernelW),
		uint32(p.StrideH), uint32(p.StrideW), uint32(p.PadH), uint32(p.PadW),
		uint32(p.OutH), uint32(p.OutW),
	}
}

func (c *Context) ConvForward(x, w, bias, y []float32, p ConvParams) {
	hasBias := uint32(0)
	if bias != nil {
		hasBias = 1
	} else {
		// The shader still needs a bound buffer at the bias slot.
		bias = []float32{0}
	}
	words := append(convWords(p), hasBias)
	c.run("conv_forward", convForwardShader, [][]float32{x, w, bias}, [][]float32{y}, words, groups1D(len(y)))
}

func (c *Context) ConvBackwardBias(dy, db []float32, p ConvParams) {
	words := []uint32{uint32(p.Batch), uint32(p.OutChannels), uint32(p.OutH), uint32(p.OutW)}
	c.run("conv_backward_bias", convBackwardBiasShader, [][]float32{dy}, [][]float32{db}, words, groups1D(p.OutChannels))
}

func (c *Context) ConvBackwardWeight(x, dy, dw []float32, p ConvParams) {
	c.run("conv_backward_weight", convBackwardWeightShader, [][]float32{x, dy}, [][]float32{dw}, convWords(p), groups1D(len(dw)))
}

func (c *Context) ConvBackwardInput(w, dy, dx []float32, p ConvParams) {
	c.run("conv_backward_input", convBackwardInputShader, [][]float32{w, dy}, [][]float32{dx}, convWords(p), groups1D(len(dx)))
}

func poolWords(p PoolParams) []uint32 {
	return []uint32{
		uint32(p.Batch), uint32(p.Channels), uint32(p.InH), uint32(p.InW),
		uint32(p.KernelH), uint32(p.KernelW), uint32(p.StrideH), uint32(p.StrideW),
		uint32(p.PadH), uint32(p.PadW), uint32(p.OutH), uint32(p.OutW),
	}
}

func (c *Context) AvePoolForward(x, y []float32, p PoolParams) {
	c.run("avepool_forward", avePoolForwardShader, [][]float32{x}, [][]float32{y}, poolWords(p), groups1D(len(y)))
}

func (c *Context) AvePoolBackward(dy, dx []float32, p PoolParams) {
	c.run("avepool_backward", avePoolBackwardShader, [][]float32{dy}, [][]float32{dx}, poolWords(p), groups1D(len(dx)))
}

func lrnWords(p LRNParams) []uint32 {
	within := uint32(0)
	if p.WithinChannel {
		within = 1
	}
	return []uint32{
		uint32(p.Batch), uint32(p.Channels), uint32(p.Height), uint32(p.Width),
		uint32(p.LocalSize), f32bits(p.Alpha), f32bits(p.Beta), f32bits(p.K), within,
	}
}

func (c *Context) LRNForward(x, y, scale []float32, p LRNParams) {
	c.run("lrn_forward", lrnForwardShader, [][]float32{x}, [][]float32{y, scale}, lrnWords(p), groups1D(len(x)))
}

func (c *Context) LRNBackward(x, scale, dy, dx []float32, p LRNParams) {
	c.run("lrn_backward", lrnBackwardShader, [][]float32{x, scale, dy}, [][]float32{dx}, lrnWords(p), groups1D(len(x)))
}

// SliceForward partitions src along the slice axis as a series of device
// buffer copies. No arithmetic runs on the values, so the outputs are
// byte-identical to the host-side copy loop.
func (c *Context) SliceForward(src []float32, dsts [][]float32, outer, extent, sliceSize int, widths []int) {
	srcBuf := c.uploadBuffer(src, wgpu.BufferUsageCopySrc)
	defer srcBuf.Release()

	stagings := make([]*wgpu.Buffer, len(dsts))
	encoder := c.device.CreateCommandEncoder(nil)
	offset := 0
	for i, width := range widths {
		run := width * sliceSize
		staging := c.device.CreateBuffer(&wgpu.BufferDescriptor{
			Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
			Size:  uint64(outer * run * 4),
		})
		stagings[i] = staging
		for n := 0; n < outer; n++ {
			srcOff := uint64((n*extent + offset) * sliceSize * 4)
			dstOff := uint64(n * run * 4)
			encoder.CopyBufferToBuffer(srcBuf, srcOff, staging, dstOff, uint64(run*4))
		}
		offset += width
	}
	c.queue.Submit(encoder.Finish(nil))

	for i, staging := range stagings {
		size := uint64(len(dsts[i]) * 4)
		if err := staging.MapAsync(c.device, wgpu.MapModeRead, 0, size); err != nil {
			panic(fmt.Sprintf("webgpu: slice readback failed: %v", err))
		}
		mapped := unsafe.Slice((*float32)(staging.GetMappedRange(0, size)), len(dsts[i]))
		copy(dsts[i], mapped)
		staging.Unmap()
		staging.Release()
	}
}

// SliceBackward reassembles the top gradients into dst, the inverse of the
// forward partition.
func (c *Context) SliceBackward(srcs [][]float32, dst []float32, outer, extent, sliceSize int, widths []int) {
	staging := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  uint64(len(dst) * 4),
	})
	defer staging.Release()

	srcBufs := make([]*wgpu.Buffer, len(srcs))
	encoder := c.device.CreateCommandEncoder(nil)
	offset := 0
	for i, width := range widths {
		run := width * sliceSize
		srcBufs[i] = c.uploadBuffer(srcs[i], wgpu.BufferUsageCopySrc)
		for n := 0; n < outer; n++ {
			srcOff := uint64(n * run * 4)
			dstOff := uint64((n*extent + offset) * sliceSize * 4)
			encoder.CopyBufferToBuffer(srcBufs[i], srcOff, staging, dstOff, uint64(run*4))
		}
		offset += width
	}
	c.queue.Submit(encoder.Finish(nil))

	size := uint64(len(dst) * 4)
	if err := staging.MapAsync(c.device, wgpu.MapModeRead, 0, size); err != nil {
		panic(fmt.Sprintf("webgpu: slice gradient readback failed: %v", err))
	}
	mapped := unsafe.Slice((*float32)(staging.GetMappedRange(0, size)), len(dst))
	copy(dst, mapped)
	staging.Unmap()

	for _, buf := range srcBufs {
		buf.Release()
	}
}
