// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package layer provides the layer variants of the Strata engine.
//
// Every layer consumes bottom tensors and fills top tensors. Drivers call
// SetUp once, then Reshape and Forward for every batch, and Backward when
// training:
//
//	sm := layer.NewSoftmax("prob", layer.DefaultSoftmaxConfig())
//	top := []*tensor.Tensor{tensor.New(0, 0, 0, 0)}
//	if err := layer.SetUp(sm, []*tensor.Tensor{scores}, top); err != nil {
//	    return err
//	}
//	sm.Forward([]*tensor.Tensor{scores}, top)
//
// Layers can also be created by type name through New and NewConfig.
package layer

import (
	"github.com/born-ml/strata/internal/layer"
)

// Core contract.
type (
	// Layer is the capability set every variant implements.
	Layer = layer.Layer

	// Kind identifies a layer variant.
	Kind = layer.Kind

	// Multiplicity is a layer's static bottom/top count contract.
	Multiplicity = layer.Multiplicity

	// ConfigError reports a configuration problem found at setup or reshape.
	ConfigError = layer.ConfigError

	// NotImplementedError is the panic value of an unsupported operation.
	NotImplementedError = layer.NotImplementedError
)

// Layer variants.
const (
	KindArgMax       = layer.KindArgMax
	KindConcat       = layer.KindConcat
	KindEltwise      = layer.KindEltwise
	KindFilter       = layer.KindFilter
	KindFlatten      = layer.KindFlatten
	KindInnerProduct = layer.KindInnerProduct
	KindMVN          = layer.KindMVN
	KindSilence      = layer.KindSilence
	KindSoftmax      = layer.KindSoftmax
	KindSplit        = layer.KindSplit
	KindSlice        = layer.KindSlice
	KindIndexedData  = layer.KindIndexedData
)

// Unconstrained marks a multiplicity bound that is not checked.
const Unconstrained = layer.Unconstrained

// Errors.
var (
	ErrConfig         = layer.ErrConfig
	ErrNotImplemented = layer.ErrNotImplemented
)

// SetUp checks l's multiplicity, runs its one-time setup and first Reshape.
func SetUp(l Layer, bottom, top []*Tensor) error {
	return layer.SetUp(l, bottom, top)
}

// New creates a layer by kind. cfg is the variant's config struct, a pointer
// to it, or nil for the defaults.
func New(kind Kind, name string, cfg any) (Layer, error) {
	return layer.New(kind, name, cfg)
}

// NewConfig returns a pointer to kind's default configuration.
func NewConfig(kind Kind) (any, error) {
	return layer.NewConfig(kind)
}

// Kinds lists the registered variants.
func Kinds() []Kind {
	return layer.Kinds()
}

// ParseKind resolves a variant name, ignoring case.
func ParseKind(s string) (Kind, error) {
	return layer.ParseKind(s)
}
