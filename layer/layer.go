// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package layer provides the public API for Strata's layer registry and
// engine-aware factory.
//
// A layer is named by a type string ("Convolution", "Slice", ...); the
// registry maps that string to a creator which applies the per-operator
// engine resolution policy and builds either the generic or the accelerated
// implementation.
//
// Example:
//
//	l, err := layer.DefaultRegistry().Create(&layer.Spec{
//	    Name: "split", Type: "Slice",
//	    Slice: &layer.SliceSpec{SlicePoints: []int{2, 5}},
//	})
package layer

import (
	"github.com/born-ml/strata/internal/layer"
)

// Layer is the capability set every computational unit implements.
type Layer = layer.Layer

// Spec describes one layer of a network.
type Spec = layer.Spec

// ConfigError is a fatal configuration error naming the offending layer.
type ConfigError = layer.ConfigError

// CreatorFunc builds a concrete layer from its spec.
type CreatorFunc = layer.CreatorFunc

// Registry maps layer type strings to creator functions.
type Registry = layer.Registry

// Engine selects the backend implementation family for a layer.
type Engine = layer.Engine

// Engine values.
const (
	// EngineDefault lets the factory pick the preferred available engine.
	EngineDefault Engine = layer.EngineDefault
	// EngineGeneric forces the portable reference implementation.
	EngineGeneric Engine = layer.EngineGeneric
	// EngineAccelerated forces the webgpu implementation.
	EngineAccelerated Engine = layer.EngineAccelerated
)

// Operator parameter specs.
type (
	// ConvolutionSpec parameterizes a 2D convolution.
	ConvolutionSpec = layer.ConvolutionSpec
	// PoolingSpec parameterizes 2D pooling.
	PoolingSpec = layer.PoolingSpec
	// LRNSpec parameterizes local response normalization.
	LRNSpec = layer.LRNSpec
	// ReLUSpec parameterizes the rectifier activation.
	ReLUSpec = layer.ReLUSpec
	// SigmoidSpec parameterizes the sigmoid activation.
	SigmoidSpec = layer.SigmoidSpec
	// TanHSpec parameterizes the hyperbolic-tangent activation.
	TanHSpec = layer.TanHSpec
	// SoftmaxSpec parameterizes softmax.
	SoftmaxSpec = layer.SoftmaxSpec
	// SliceSpec parameterizes the slice operator.
	SliceSpec = layer.SliceSpec
)

// PoolMethod selects the pooling reduction.
type PoolMethod = layer.PoolMethod

// Pooling methods.
const (
	PoolMax PoolMethod = layer.PoolMax
	PoolAve PoolMethod = layer.PoolAve
)

// NormRegion selects the neighborhood of local response normalization.
type NormRegion = layer.NormRegion

// Normalization regions.
const (
	NormAcrossChannels NormRegion = layer.NormAcrossChannels
	NormWithinChannel  NormRegion = layer.NormWithinChannel
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return layer.NewRegistry()
}

// DefaultRegistry returns the process-wide registry with the built-in
// operator kinds registered.
func DefaultRegistry() *Registry {
	return layer.Default()
}
