// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the public API of the accelerated execution
// backend.
//
// The backend is compiled in on windows, where wgpu-native is available;
// elsewhere Available reports false and the engine resolution policy routes
// every layer to the generic implementations. Most programs never touch this
// package directly: the layer factory probes and obtains the context itself.
//
// Example:
//
//	if webgpu.Available() {
//	    ctx, _ := webgpu.Default()
//	    defer ctx.Release()
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/strata/internal/backend/webgpu"
)

// Context is the accelerated execution context: a WebGPU device, its queue,
// and the compiled kernel caches.
type Context = internalwebgpu.Context

// Available reports whether the backend is compiled in and a device can be
// obtained. The probe runs once per process and is cached.
func Available() bool {
	return internalwebgpu.Available()
}

// Default returns the process-wide shared context, creating it on first use.
func Default() (*Context, error) {
	return internalwebgpu.Default()
}
