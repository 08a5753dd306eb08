// Package tensor provides the 4-D blob type shared by every layer.
//
// A Tensor has a shape (N, C, H, W), a data buffer and a gradient ("diff")
// buffer of the same element count. Buffers are reference-counted storages
// that can be borrowed by other tensors for zero-copy reshapes and
// replication:
//
//	flat := tensor.New(2, 12, 1, 1)
//	flat.ShareData(x) // flat reads and writes x's values
//
// The borrow holds until either tensor is reshaped to a different element
// count, at which point the reshaped tensor gets fresh storage.
package tensor

import (
	"fmt"
	"log/slog"

	"github.com/born-ml/strata/internal/backend/cpu"
)

// Tensor is a dense float32 (N, C, H, W) array with a paired gradient buffer.
type Tensor struct {
	shape Shape
	data  *storage
	diff  *storage
}

// New allocates a zero-filled tensor with the given dimensions.
// Panics if any dimension is negative.
func New(n, c, h, w int) *Tensor {
	return NewFromShape(NewShape(n, c, h, w))
}

// NewFromShape allocates a zero-filled tensor of the given shape.
func NewFromShape(s Shape) *Tensor {
	if err := s.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: %v", err))
	}
	count := s.NumElements()
	return &Tensor{
		shape: s,
		data:  newStorage(count),
		diff:  newStorage(count),
	}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's data buffer.
func FromSlice(data []float32, s Shape) (*Tensor, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if s.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", s, s.NumElements(), len(data))
	}
	t := NewFromShape(s)
	copy(t.data.data, data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Num returns the batch dimension.
func (t *Tensor) Num() int { return t.shape[AxisNum] }

// Channels returns the channel dimension.
func (t *Tensor) Channels() int { return t.shape[AxisChannels] }

// Height returns the height dimension.
func (t *Tensor) Height() int { return t.shape[AxisHeight] }

// Width returns the width dimension.
func (t *Tensor) Width() int { return t.shape[AxisWidth] }

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Count returns the product of the dimensions in [start, end).
func (t *Tensor) Count(start, end int) int {
	return t.shape.Count(start, end)
}

// Reshape changes the tensor's shape.
//
// If the element count is unchanged both buffers are kept, including any
// borrowed ones. Otherwise the tensor releases its buffers and allocates
// zeroed ones, which severs every alias this tensor was part of.
func (t *Tensor) Reshape(s Shape) {
	if err := s.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: %v", err))
	}
	count := s.NumElements()
	t.shape = s
	if count == len(t.data.data) && count == len(t.diff.data) {
		return
	}
	t.data.release()
	t.diff.release()
	t.data = newStorage(count)
	t.diff = newStorage(count)
}

// ReshapeLike reshapes t to other's shape.
func (t *Tensor) ReshapeLike(other *Tensor) {
	t.Reshape(other.shape)
}

// Data returns the data buffer (zero-copy).
//
// WARNING: Modifications to the returned slice modify the tensor and every
// tensor sharing its data.
func (t *Tensor) Data() []float32 {
	return t.data.data
}

// Diff returns the gradient buffer (zero-copy).
func (t *Tensor) Diff() []float32 {
	return t.diff.data
}

// Offset returns the flat index of element (n, c, h, w).
// Panics if any index is out of bounds.
func (t *Tensor) Offset(n, c, h, w int) int {
	idx := [NumAxes]int{n, c, h, w}
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", v, i, t.shape[i]))
		}
	}
	return ((n*t.shape[1]+c)*t.shape[2]+h)*t.shape[3] + w
}

// DataAt returns the value at (n, c, h, w).
func (t *Tensor) DataAt(n, c, h, w int) float32 {
	return t.data.data[t.Offset(n, c, h, w)]
}

// DiffAt returns the gradient at (n, c, h, w).
func (t *Tensor) DiffAt(n, c, h, w int) float32 {
	return t.diff.data[t.Offset(n, c, h, w)]
}

// ShareData makes t borrow other's data buffer.
// Panics if the element counts differ.
func (t *Tensor) ShareData(other *Tensor) {
	if t.NumElements() != other.NumElements() {
		panic(fmt.Sprintf("tensor: cannot share data of %v with %v", other.shape, t.shape))
	}
	if t.data == other.data {
		return
	}
	t.data.release()
	other.data.addRef()
	t.data = other.data
}

// ShareDiff makes t borrow other's gradient buffer.
// Panics if the element counts differ.
func (t *Tensor) ShareDiff(other *Tensor) {
	if t.NumElements() != other.NumElements() {
		panic(fmt.Sprintf("tensor: cannot share diff of %v with %v", other.shape, t.shape))
	}
	if t.diff == other.diff {
		return
	}
	t.diff.release()
	other.diff.addRef()
	t.diff = other.diff
}

// SharesData reports whether t and other use the same data buffer.
func (t *Tensor) SharesData(other *Tensor) bool {
	return t.data == other.data
}

// SharesDiff reports whether t and other use the same gradient buffer.
func (t *Tensor) SharesDiff(other *Tensor) bool {
	return t.diff == other.diff
}

// IsShared reports whether either buffer is held by another tensor.
func (t *Tensor) IsShared() bool {
	return !t.data.isUnique() || !t.diff.isUnique()
}

// ZeroData fills the data buffer with zeros.
func (t *Tensor) ZeroData() {
	clear(t.data.data)
}

// ZeroDiff fills the gradient buffer with zeros.
func (t *Tensor) ZeroDiff() {
	clear(t.diff.data)
}

// CopyFrom copies src's data (or diff, if diff is true) into t's data (or
// diff). When reshape is true t is first reshaped like src; otherwise the
// element counts must match.
func (t *Tensor) CopyFrom(src *Tensor, diff, reshape bool) {
	if reshape {
		t.ReshapeLike(src)
	} else if t.NumElements() != src.NumElements() {
		panic(fmt.Sprintf("tensor: copy from %v into %v without reshape", src.shape, t.shape))
	}
	if diff {
		copy(t.diff.data, src.diff.data)
		return
	}
	copy(t.data.data, src.data.data)
}

// AsumData returns the sum of absolute data values.
func (t *Tensor) AsumData() float32 {
	return asum(t.data.data)
}

// AsumDiff returns the sum of absolute gradient values.
func (t *Tensor) AsumDiff() float32 {
	return asum(t.diff.data)
}

// SumSqData returns the sum of squared data values.
func (t *Tensor) SumSqData() float32 {
	return sumsq(t.data.data)
}

// SumSqDiff returns the sum of squared gradient values.
func (t *Tensor) SumSqDiff() float32 {
	return sumsq(t.diff.data)
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[float32]%v", t.shape)
}

// LogValue implements slog.LogValuer with the shape, a value summary and up
// to the first eight values.
func (t *Tensor) LogValue() slog.Value {
	head := t.data.data[:min(len(t.data.data), 8)]
	return slog.GroupValue(
		slog.String("shape", t.shape.String()),
		slog.Float64("asum", float64(t.AsumData())),
		slog.Any("head", head),
	)
}

func asum(x []float32) float32 {
	return cpu.Asum(x)
}

func sumsq(x []float32) float32 {
	return cpu.Dot(x, x)
}
