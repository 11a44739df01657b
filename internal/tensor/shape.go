package tensor

import "fmt"

// Shape represents the dimensions of a blob.
type Shape []int

// NumElements returns the total number of elements in the blob.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// CanonicalAxis normalizes an axis index, supporting negative indexing
// (-1 = last axis). Returns an error if the axis is out of range.
func (s Shape) CanonicalAxis(axis int) (int, error) {
	ndim := len(s)
	if axis < -ndim || axis >= ndim {
		return 0, fmt.Errorf("axis %d out of range for %dD shape", axis, ndim)
	}
	if axis < 0 {
		return ndim + axis, nil
	}
	return axis, nil
}
