package tensor

import "fmt"

// Axis indices of a 4-D shape.
const (
	AxisNum = iota
	AxisChannels
	AxisHeight
	AxisWidth
	NumAxes
)

// Shape represents the dimensions of a tensor as (N, C, H, W).
type Shape [NumAxes]int

// NewShape builds a Shape from its four dimensions.
func NewShape(n, c, h, w int) Shape {
	return Shape{n, c, h, w}
}

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	return s.Count(0, NumAxes)
}

// Count returns the product of the dimensions in [start, end).
// An empty range counts as 1.
func (s Shape) Count(start, end int) int {
	if start < 0 || end > NumAxes || start > end {
		panic(fmt.Sprintf("shape: invalid axis range [%d, %d)", start, end))
	}
	n := 1
	for _, dim := range s[start:end] {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions >= 0).
// A zero batch dimension is legal and yields an empty tensor.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
	}
	return nil
}

// EqualExcept reports whether two shapes agree on every axis but axis.
func (s Shape) EqualExcept(other Shape, axis int) bool {
	for i := range s {
		if i != axis && s[i] != other[i] {
			return false
		}
	}
	return true
}

// With returns a copy of the shape with axis set to dim.
func (s Shape) With(axis, dim int) Shape {
	s[axis] = dim
	return s
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() [NumAxes]int {
	var strides [NumAxes]int
	strides[NumAxes-1] = 1
	for i := NumAxes - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// String formats the shape as "(N,C,H,W)".
func (s Shape) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", s[0], s[1], s[2], s[3])
}
