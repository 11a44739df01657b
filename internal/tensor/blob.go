package tensor

import "fmt"

// Blob is the float32 buffer passed between layers. It carries two parallel
// buffers of identical extent: Data holds values computed by forward passes,
// Diff holds gradients accumulated by backward passes.
//
// Reshape keeps the underlying buffers when capacity allows, so per-iteration
// reshapes (e.g. a new batch size) do not reallocate in the steady state.
type Blob struct {
	shape Shape
	data  []float32
	diff  []float32
}

// NewBlob creates a blob with the given shape. Both buffers are zeroed.
func NewBlob(shape Shape) (*Blob, error) {
	b := &Blob{}
	if err := b.Reshape(shape); err != nil {
		return nil, err
	}
	return b, nil
}

// Reshape changes the blob's shape, growing the buffers if needed.
// Existing contents are preserved up to the new element count.
func (b *Blob) Reshape(shape Shape) error {
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("blob reshape: %w", err)
	}
	n := shape.NumElements()
	if n > cap(b.data) {
		data := make([]float32, n)
		copy(data, b.data)
		b.data = data
		diff := make([]float32, n)
		copy(diff, b.diff)
		b.diff = diff
	} else {
		b.data = b.data[:n]
		b.diff = b.diff[:n]
	}
	b.shape = shape.Clone()
	return nil
}

// ReshapeLike reshapes this blob to match another blob's shape.
func (b *Blob) ReshapeLike(other *Blob) error {
	return b.Reshape(other.shape)
}

// Shape returns the blob's shape. Callers must not mutate it.
func (b *Blob) Shape() Shape {
	return b.shape
}

// NumAxes returns the number of dimensions.
func (b *Blob) NumAxes() int {
	return len(b.shape)
}

// Dim returns the extent of the given axis.
func (b *Blob) Dim(axis int) int {
	return b.shape[axis]
}

// Count returns the total number of elements.
func (b *Blob) Count() int {
	return b.shape.NumElements()
}

// CountFrom returns the product of dimensions from axis to the end.
func (b *Blob) CountFrom(axis int) int {
	return b.CountRange(axis, len(b.shape))
}

// CountRange returns the product of dimensions in [start, end).
func (b *Blob) CountRange(start, end int) int {
	n := 1
	for i := start; i < end; i++ {
		n *= b.shape[i]
	}
	return n
}

// Data returns the value buffer. The slice aliases the blob's storage.
func (b *Blob) Data() []float32 {
	return b.data
}

// Diff returns the gradient buffer. The slice aliases the blob's storage.
func (b *Blob) Diff() []float32 {
	return b.diff
}

// ZeroDiff clears the gradient buffer.
func (b *Blob) ZeroDiff() {
	for i := range b.diff {
		b.diff[i] = 0
	}
}

// ZeroData clears the value buffer.
func (b *Blob) ZeroData() {
	for i := range b.data {
		b.data[i] = 0
	}
}
