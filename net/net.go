// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package net provides the public API for assembling layers into an
// executable network.
//
// Example:
//
//	spec, err := net.ParseSpec(file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	n, err := net.New(spec, layer.DefaultRegistry())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	copy(n.Input("data").Data(), batch)
//	n.Forward()
package net

import (
	"io"

	"github.com/born-ml/strata/internal/net"
	"github.com/born-ml/strata/layer"
)

// Spec describes a whole network: its inputs and its layers in execution
// order.
type Spec = net.Spec

// InputSpec declares a named network input and its shape.
type InputSpec = net.InputSpec

// Net is an executable network.
type Net = net.Net

// ParseSpec decodes a network spec from JSON.
func ParseSpec(r io.Reader) (*Spec, error) {
	return net.ParseSpec(r)
}

// New builds a network from its spec using the given registry.
func New(spec *Spec, registry *layer.Registry) (*Net, error) {
	return net.New(spec, registry)
}
