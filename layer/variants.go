// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package layer

import (
	"github.com/born-ml/strata/internal/layer"
	"github.com/born-ml/strata/internal/tensor"
)

// Tensor is the blob type layers operate on.
type Tensor = tensor.Tensor

// Variant configurations.
type (
	ArgMaxConfig       = layer.ArgMaxConfig
	ConcatConfig       = layer.ConcatConfig
	EltwiseConfig      = layer.EltwiseConfig
	EltwiseOp          = layer.EltwiseOp
	FilterConfig       = layer.FilterConfig
	FilterMode         = layer.FilterMode
	FillerConfig       = layer.FillerConfig
	InnerProductConfig = layer.InnerProductConfig
	MVNConfig          = layer.MVNConfig
	SliceConfig        = layer.SliceConfig
	SoftmaxConfig      = layer.SoftmaxConfig
)

// Eltwise operators.
const (
	EltwiseProd = layer.EltwiseProd
	EltwiseSum  = layer.EltwiseSum
	EltwiseMax  = layer.EltwiseMax
)

// Filter predicates.
const (
	FilterArgMaxEquals   = layer.FilterArgMaxEquals
	FilterArgMaxDiffers  = layer.FilterArgMaxDiffers
	FilterLabelEquals    = layer.FilterLabelEquals
	FilterThresholdAbove = layer.FilterThresholdAbove
)

// Variant types.
type (
	ArgMax       = layer.ArgMax
	Concat       = layer.Concat
	Eltwise      = layer.Eltwise
	Filter       = layer.Filter
	Flatten      = layer.Flatten
	InnerProduct = layer.InnerProduct
	MVN          = layer.MVN
	Silence      = layer.Silence
	Softmax      = layer.Softmax
	Split        = layer.Split
	Slice        = layer.Slice
)

// NewArgMax creates an ArgMax layer.
func NewArgMax(name string, cfg ArgMaxConfig) *ArgMax { return layer.NewArgMax(name, cfg) }

// NewConcat creates a Concat layer.
func NewConcat(name string, cfg ConcatConfig) *Concat { return layer.NewConcat(name, cfg) }

// NewEltwise creates an Eltwise layer.
func NewEltwise(name string, cfg EltwiseConfig) *Eltwise { return layer.NewEltwise(name, cfg) }

// NewFilter creates a Filter layer.
func NewFilter(name string, cfg FilterConfig) *Filter { return layer.NewFilter(name, cfg) }

// NewFlatten creates a Flatten layer.
func NewFlatten(name string) *Flatten { return layer.NewFlatten(name) }

// NewInnerProduct creates an InnerProduct layer.
func NewInnerProduct(name string, cfg InnerProductConfig) *InnerProduct {
	return layer.NewInnerProduct(name, cfg)
}

// NewMVN creates an MVN layer.
func NewMVN(name string, cfg MVNConfig) *MVN { return layer.NewMVN(name, cfg) }

// NewSilence creates a Silence layer.
func NewSilence(name string) *Silence { return layer.NewSilence(name) }

// NewSoftmax creates a Softmax layer.
func NewSoftmax(name string, cfg SoftmaxConfig) *Softmax { return layer.NewSoftmax(name, cfg) }

// NewSplit creates a Split layer.
func NewSplit(name string) *Split { return layer.NewSplit(name) }

// NewSlice creates a Slice layer.
func NewSlice(name string, cfg SliceConfig) *Slice { return layer.NewSlice(name, cfg) }

// Default configurations.
var (
	DefaultArgMaxConfig       = layer.DefaultArgMaxConfig
	DefaultConcatConfig       = layer.DefaultConcatConfig
	DefaultEltwiseConfig      = layer.DefaultEltwiseConfig
	DefaultInnerProductConfig = layer.DefaultInnerProductConfig
	DefaultMVNConfig          = layer.DefaultMVNConfig
	DefaultSliceConfig        = layer.DefaultSliceConfig
	DefaultSoftmaxConfig      = layer.DefaultSoftmaxConfig
)
