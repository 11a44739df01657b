//go:build windows

package webgpu

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

// Context is the accelerated execution context: one WebGPU device and queue
// plus shader and pipeline caches. It is safe for use from the single
// network-construction/execution thread; the caches carry their own lock so
// a context may also be shared across independently built networks.
type Context struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	mu        sync.RWMutex
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
}

// New creates a context on the first available high-performance adapter.
// Returns an error if WebGPU is not usable on this machine.
func New() (ctx *Context, err error) {
	// Recover if the wgpu-native library cannot be loaded.
	defer func() {
		if r := recover(); r != nil {
			ctx = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to obtain device queue")
	}

	return &Context{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}, nil
}

// Release frees the context's device resources.
func (c *Context) Release() {
	if c.device != nil {
		c.device.Release()
	}
	if c.adapter != nil {
		c.adapter.Release()
	}
	if c.instance != nil {
		c.instance.Release()
	}
}

var (
	defaultCtx     *Context
	defaultCtxErr  error
	defaultCtxOnce sync.Once
)

// Default returns the process-wide shared context, probing the device
// exactly once.
func Default() (*Context, error) {
	defaultCtxOnce.Do(func() {
		defaultCtx, defaultCtxErr = New()
	})
	return defaultCtx, defaultCtxErr
}

// Available reports whether the webgpu backend is compiled in and a device
// can be obtained. The probe runs once and is cached.
func Available() bool {
	_, err := Default()
	return err == nil
}

// compileShader returns the cached shader module for name, compiling the
// WGSL source on first use.
func (c *Context) compileShader(name, code string) *wgpu.ShaderModule {
	c.mu.RLock()
	if shader, ok := c.shaders[name]; ok {
		c.mu.RUnlock()
		return shader
	}
	c.mu.RUnlock()

	shader := c.device.CreateShaderModuleWGSL(code)

	c.mu.Lock()
	c.shaders[name] = shader
	c.mu.Unlock()
	return shader
}

// pipeline returns the cached compute pipeline for name.
func (c *Context) pipeline(name, code string) *wgpu.ComputePipeline {
	c.mu.RLock()
	if p, ok := c.pipelines[name]; ok {
		c.mu.RUnlock()
		return p
	}
	c.mu.RUnlock()

	shader := c.compileShader(name, code)
	p := c.device.CreateComputePipelineSimple(nil, shader, "main")

	c.mu.Lock()
	c.pipelines[name] = p
	c.mu.Unlock()
	return p
}

// uploadBuffer creates a storage buffer initialized with data.
func (c *Context) uploadBuffer(data []float32, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data) * 4)
	buffer := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mapped := unsafe.Slice((*float32)(buffer.GetMappedRange(0, size)), len(data))
	copy(mapped, data)
	buffer.Unmap()
	return buffer
}

// emptyBuffer creates an uninitialized buffer of n float32 elements.
func (c *Context) emptyBuffer(n int, usage wgpu.BufferUsage) *wgpu.Buffer {
	return c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  uint64(n * 4),
	})
}

// uniformBuffer creates a 16-byte-aligned uniform buffer from raw words.
func (c *Context) uniformBuffer(words []uint32) *wgpu.Buffer {
	size := uint64(len(words) * 4)
	alignedSize := (size + 15) &^ 15
	buffer := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})
	mapped := unsafe.Slice((*uint32)(buffer.GetMappedRange(0, alignedSize)), int(alignedSize/4))
	copy(mapped, words)
	buffer.Unmap()
	return buffer
}

// readBack copies a device buffer into dst through a staging buffer.
func (c *Context) readBack(src *wgpu.Buffer, dst []float32) error {
	size := uint64(len(dst) * 4)
	staging := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := c.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	c.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(c.device, wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}
	mapped := unsafe.Slice((*float32)(staging.GetMappedRange(0, size)), len(dst))
	copy(dst, mapped)
	staging.Unmap()
	return nil
}

// dispatch runs one compute pass of the named pipeline over the bound
// buffers with the given workgroup counts.
func (c *Context) dispatch(name, code string, entries []wgpu.BindGroupEntry, x, y, z uint32) {
	p := c.pipeline(name, code)
	layout := p.GetBindGroupLayout(0)
	bindGroup := c.device.CreateBindGroupSimple(layout, entries)
	defer bindGroup.Release()

	encoder := c.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(p)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(x, y, z)
	pass.End()
	c.queue.Submit(encoder.Finish(nil))
}

// storageEntry binds a whole buffer at the given slot.
func storageEntry(binding uint32, buf *wgpu.Buffer, n int) wgpu.BindGroupEntry {
	return wgpu.BufferBindingEntry(binding, buf, 0, uint64(n*4))
}

// groups1D returns the workgroup count covering n elements.
func groups1D(n int) uint32 {
	return uint32((n + workgroupSize - 1) / workgroupSize)
}

// f32bits reinterprets a float32 as a uniform word.
func f32bits(v float32) uint32 {
	return *(*uint32)(unsafe.Pointer(&v))
}
