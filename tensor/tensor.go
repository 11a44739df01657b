// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the blobs flowing through a
// Strata network.
//
// A Blob is a shaped float32 buffer with a parallel gradient buffer; layers
// read and write both during the forward and backward passes.
//
// Example:
//
//	b, err := tensor.NewBlob(tensor.Shape{2, 3, 224, 224})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	copy(b.Data(), pixels)
package tensor

import (
	"github.com/born-ml/strata/internal/tensor"
)

// Shape represents the dimensions of a blob.
// Example: Shape{2, 3, 4} represents a 3D blob with dimensions 2×3×4.
type Shape = tensor.Shape

// Blob is a shaped float32 value buffer with a parallel gradient buffer.
type Blob = tensor.Blob

// NewBlob creates a blob with the given shape. Both buffers are zeroed.
func NewBlob(shape Shape) (*Blob, error) {
	return tensor.NewBlob(shape)
}
