package tensor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape_Count(t *testing.T) {
	s := NewShape(2, 3, 4, 5)

	assert.Equal(t, 120, s.NumElements())
	assert.Equal(t, 60, s.Count(1, NumAxes))
	assert.Equal(t, 20, s.Count(2, NumAxes))
	assert.Equal(t, 1, s.Count(2, 2))
	assert.Equal(t, "(2,3,4,5)", s.String())
	assert.Panics(t, func() { s.Count(3, 1) })
}

func TestShape_Validate(t *testing.T) {
	assert.NoError(t, NewShape(0, 3, 1, 1).Validate())
	assert.Error(t, NewShape(1, -1, 1, 1).Validate())
}

func TestShape_EqualExcept(t *testing.T) {
	a := NewShape(2, 3, 4, 4)
	b := NewShape(2, 5, 4, 4)

	assert.True(t, a.EqualExcept(b, AxisChannels))
	assert.False(t, a.EqualExcept(b, AxisNum))
	assert.Equal(t, b, a.With(AxisChannels, 5))
}

func TestShape_ComputeStrides(t *testing.T) {
	strides := NewShape(2, 3, 4, 5).ComputeStrides()
	if diff := cmp.Diff([NumAxes]int{60, 20, 5, 1}, strides); diff != "" {
		t.Errorf("strides mismatch (-want +got):\n%s", diff)
	}
}

func TestFromSlice(t *testing.T) {
	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, NewShape(1, 2, 3, 1))
	require.NoError(t, err)

	assert.Equal(t, 6, x.NumElements())
	assert.Equal(t, float32(5), x.DataAt(0, 1, 1, 0))
	assert.Len(t, x.Diff(), 6)

	_, err = FromSlice([]float32{1, 2}, NewShape(1, 3, 1, 1))
	assert.Error(t, err)
}

func TestTensor_Offset(t *testing.T) {
	x := New(2, 3, 4, 5)

	assert.Equal(t, 0, x.Offset(0, 0, 0, 0))
	assert.Equal(t, 60+2*20+3*5+4, x.Offset(1, 2, 3, 4))
	assert.Panics(t, func() { x.Offset(2, 0, 0, 0) })
}

func TestTensor_ShareData(t *testing.T) {
	a := New(2, 3, 2, 2)
	b := New(2, 12, 1, 1)

	b.ShareData(a)
	require.True(t, b.SharesData(a))
	assert.True(t, a.IsShared())
	assert.False(t, b.SharesDiff(a))

	// Writes through either holder are visible through both.
	a.Data()[5] = 7
	assert.Equal(t, float32(7), b.Data()[5])
	b.Data()[0] = -1
	assert.Equal(t, float32(-1), a.Data()[0])
}

func TestTensor_ShareDiff(t *testing.T) {
	a := New(1, 4, 1, 1)
	b := New(1, 1, 2, 2)

	a.ShareDiff(b)
	b.Diff()[3] = 2.5
	assert.Equal(t, float32(2.5), a.Diff()[3])

	assert.Panics(t, func() { a.ShareDiff(New(1, 3, 1, 1)) })
}

func TestTensor_ReshapeSameCountKeepsAlias(t *testing.T) {
	a := New(1, 6, 1, 1)
	b := New(1, 6, 1, 1)
	b.ShareData(a)

	b.Reshape(NewShape(2, 3, 1, 1))

	assert.True(t, b.SharesData(a))
	assert.Equal(t, NewShape(2, 3, 1, 1), b.Shape())
}

func TestTensor_ReshapeSeversAlias(t *testing.T) {
	a := New(1, 6, 1, 1)
	b := New(1, 6, 1, 1)
	b.ShareData(a)
	a.Data()[0] = 3

	a.Reshape(NewShape(1, 8, 1, 1))

	assert.False(t, b.SharesData(a))
	assert.False(t, a.IsShared())
	// The old buffer survives with the remaining holder.
	assert.Equal(t, float32(3), b.Data()[0])
	assert.Len(t, a.Data(), 8)
	assert.Equal(t, float32(0), a.Data()[0])
}

func TestTensor_CopyFrom(t *testing.T) {
	src, err := FromSlice([]float32{1, 2, 3}, NewShape(1, 3, 1, 1))
	require.NoError(t, err)
	copy(src.Diff(), []float32{4, 5, 6})

	dst := New(1, 1, 1, 1)
	dst.CopyFrom(src, false, true)
	assert.Equal(t, []float32{1, 2, 3}, dst.Data())

	dst.CopyFrom(src, true, false)
	assert.Equal(t, []float32{4, 5, 6}, dst.Diff())

	assert.Panics(t, func() { New(1, 2, 1, 1).CopyFrom(src, false, false) })
}

func TestTensor_Reductions(t *testing.T) {
	x, err := FromSlice([]float32{1, -2, 3}, NewShape(3, 1, 1, 1))
	require.NoError(t, err)
	copy(x.Diff(), []float32{-1, 0, 2})

	assert.InDelta(t, 6.0, x.AsumData(), 1e-6)
	assert.InDelta(t, 14.0, x.SumSqData(), 1e-6)
	assert.InDelta(t, 3.0, x.AsumDiff(), 1e-6)
	assert.InDelta(t, 5.0, x.SumSqDiff(), 1e-6)
	assert.Equal(t, float32(2), x.DiffAt(2, 0, 0, 0))

	x.ZeroDiff()
	assert.Equal(t, float32(0), x.AsumDiff())
	x.ZeroData()
	assert.Equal(t, float32(0), x.AsumData())

	empty := New(0, 3, 1, 1)
	assert.Equal(t, float32(0), empty.AsumData())
}

func TestTensor_LogValue(t *testing.T) {
	x, err := FromSlice([]float32{1, -2, 3}, NewShape(1, 3, 1, 1))
	require.NoError(t, err)

	attrs := x.LogValue().Group()
	require.Len(t, attrs, 3)
	assert.Equal(t, "shape", attrs[0].Key)
	assert.Equal(t, "(1,3,1,1)", attrs[0].Value.String())
	assert.InDelta(t, 6.0, attrs[1].Value.Float64(), 1e-6)
	assert.Equal(t, []float32{1, -2, 3}, attrs[2].Value.Any())
}
