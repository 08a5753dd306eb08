// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package layer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strata/layer"
	"github.com/born-ml/strata/tensor"
)

func TestFacade_Slice(t *testing.T) {
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.NewShape(1, 6, 1, 1))
	require.NoError(t, err)

	sl := layer.NewSlice("slice", layer.SliceConfig{Dim: tensor.AxisChannels, SlicePoints: []int{2, 4}})
	top := []*tensor.Tensor{tensor.New(0, 0, 0, 0), tensor.New(0, 0, 0, 0), tensor.New(0, 0, 0, 0)}
	require.NoError(t, layer.SetUp(sl, []*tensor.Tensor{x}, top))
	sl.Forward([]*tensor.Tensor{x}, top)

	assert.Equal(t, []float32{1, 2}, top[0].Data())
	assert.Equal(t, []float32{3, 4}, top[1].Data())
	assert.Equal(t, []float32{5, 6}, top[2].Data())
}

func TestFacade_Registry(t *testing.T) {
	k, err := layer.ParseKind("eltwise")
	require.NoError(t, err)
	l, err := layer.New(k, "e", layer.EltwiseConfig{Op: layer.EltwiseMax})
	require.NoError(t, err)
	assert.Equal(t, layer.KindEltwise, l.Kind())

	err = layer.SetUp(l, []*tensor.Tensor{tensor.New(1, 1, 1, 1)}, []*tensor.Tensor{tensor.New(0, 0, 0, 0)})
	assert.ErrorIs(t, err, layer.ErrConfig)
}
