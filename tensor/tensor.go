// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/strata/internal/tensor"
)

// Tensor is a dense float32 (N, C, H, W) array with a paired gradient buffer.
type Tensor = tensor.Tensor

// Shape represents the dimensions of a tensor as (N, C, H, W).
type Shape = tensor.Shape

// Axis indices of a 4-D shape.
const (
	AxisNum      = tensor.AxisNum
	AxisChannels = tensor.AxisChannels
	AxisHeight   = tensor.AxisHeight
	AxisWidth    = tensor.AxisWidth
	NumAxes      = tensor.NumAxes
)

// NewShape builds a Shape from its four dimensions.
func NewShape(n, c, h, w int) Shape {
	return tensor.NewShape(n, c, h, w)
}

// New allocates a zero-filled tensor. Panics if any dimension is negative.
func New(n, c, h, w int) *Tensor {
	return tensor.New(n, c, h, w)
}

// NewFromShape allocates a zero-filled tensor of the given shape.
func NewFromShape(s Shape) *Tensor {
	return tensor.NewFromShape(s)
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice(data []float32, s Shape) (*Tensor, error) {
	return tensor.FromSlice(data, s)
}
