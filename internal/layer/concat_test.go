package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strata/internal/tensor"
)

func TestConcat_Channels(t *testing.T) {
	a := filled(tensor.NewShape(2, 3, 4, 4), 1)
	b := filled(tensor.NewShape(2, 3, 4, 4), 2)
	l := NewConcat("concat", DefaultConcatConfig())
	top := empties(1)

	require.NoError(t, SetUp(l, []*tensor.Tensor{a, b}, top))
	l.Forward([]*tensor.Tensor{a, b}, top)

	require.Equal(t, tensor.NewShape(2, 6, 4, 4), top[0].Shape())
	for n := 0; n < 2; n++ {
		for c := 0; c < 6; c++ {
			want := float32(1)
			if c >= 3 {
				want = 2
			}
			for h := 0; h < 4; h++ {
				for w := 0; w < 4; w++ {
					assert.Equal(t, want, top[0].DataAt(n, c, h, w), "(%d,%d,%d,%d)", n, c, h, w)
				}
			}
		}
	}
}

func TestConcat_Batch(t *testing.T) {
	a := fromSlice(t, []float32{1, 2}, tensor.NewShape(1, 2, 1, 1))
	b := fromSlice(t, []float32{3, 4, 5, 6}, tensor.NewShape(2, 2, 1, 1))
	l := NewConcat("concat", ConcatConfig{Dim: 0})
	top := empties(1)

	require.NoError(t, SetUp(l, []*tensor.Tensor{a, b}, top))
	l.Forward([]*tensor.Tensor{a, b}, top)

	assert.Equal(t, tensor.NewShape(3, 2, 1, 1), top[0].Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, top[0].Data())
}

func TestConcat_ShapeMismatch(t *testing.T) {
	a := tensor.New(2, 3, 4, 4)
	b := tensor.New(2, 3, 5, 4)
	err := SetUp(NewConcat("concat", DefaultConcatConfig()), []*tensor.Tensor{a, b}, empties(1))
	require.ErrorIs(t, err, ErrConfig)

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindConcat, cerr.Kind)
	assert.Equal(t, "concat", cerr.Layer)
}

func TestConcat_InvalidDim(t *testing.T) {
	a, b := tensor.New(1, 1, 1, 1), tensor.New(1, 1, 1, 1)
	err := SetUp(NewConcat("concat", ConcatConfig{Dim: 2}), []*tensor.Tensor{a, b}, empties(1))
	assert.ErrorIs(t, err, ErrConfig)
}

func TestConcat_BackwardRespectsPropagateDown(t *testing.T) {
	a := filled(tensor.NewShape(1, 1, 1, 2), 0)
	b := filled(tensor.NewShape(1, 2, 1, 2), 0)
	copy(b.Diff(), []float32{-1, -1, -1, -1})
	l := NewConcat("concat", DefaultConcatConfig())
	top := empties(1)
	require.NoError(t, SetUp(l, []*tensor.Tensor{a, b}, top))
	l.Forward([]*tensor.Tensor{a, b}, top)

	copy(top[0].Diff(), []float32{1, 2, 3, 4, 5, 6})
	l.Backward(top, []bool{true, false}, []*tensor.Tensor{a, b})

	assert.Equal(t, []float32{1, 2}, a.Diff())
	assert.Equal(t, []float32{-1, -1, -1, -1}, b.Diff())
}

func TestConcat_Gradient(t *testing.T) {
	a := randomTensor(tensor.NewShape(2, 2, 2, 3), 1)
	b := randomTensor(tensor.NewShape(2, 3, 2, 3), 2)
	checkGradient(t, NewConcat("concat", DefaultConcatConfig()), []*tensor.Tensor{a, b}, []int{0, 1}, 1e-2, 1e-3)
}

// TestConcatSlice_RoundTrip checks that slicing at the concat boundaries
// returns the original inputs.
func TestConcatSlice_RoundTrip(t *testing.T) {
	a := randomTensor(tensor.NewShape(2, 1, 3, 2), 3)
	b := randomTensor(tensor.NewShape(2, 4, 3, 2), 4)
	c := randomTensor(tensor.NewShape(2, 2, 3, 2), 5)
	bottoms := []*tensor.Tensor{a, b, c}

	concat := NewConcat("concat", DefaultConcatConfig())
	joined := empties(1)
	require.NoError(t, SetUp(concat, bottoms, joined))
	concat.Forward(bottoms, joined)

	slice := NewSlice("slice", SliceConfig{Dim: tensor.AxisChannels, SlicePoints: []int{1, 5}})
	parts := empties(3)
	require.NoError(t, SetUp(slice, joined, parts))
	slice.Forward(joined, parts)

	for i, want := range bottoms {
		assert.Equal(t, want.Shape(), parts[i].Shape(), "part %d", i)
		assert.Equal(t, want.Data(), parts[i].Data(), "part %d", i)
	}
}
