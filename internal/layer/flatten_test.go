package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strata/internal/tensor"
)

func TestFlatten_ShapeAndSharing(t *testing.T) {
	x := randomTensor(tensor.NewShape(2, 3, 2, 2), 5)
	l := NewFlatten("flat")
	top := empties(1)

	require.NoError(t, SetUp(l, []*tensor.Tensor{x}, top))
	l.Forward([]*tensor.Tensor{x}, top)

	assert.Equal(t, tensor.NewShape(2, 12, 1, 1), top[0].Shape())
	assert.True(t, top[0].SharesData(x))
	assert.Equal(t, x.Data(), top[0].Data())

	top[0].Diff()[5] = 3
	l.Backward(top, []bool{true}, []*tensor.Tensor{x})
	assert.True(t, x.SharesDiff(top[0]))
	assert.Equal(t, float32(3), x.Diff()[5])
}

func TestFlatten_Gradient(t *testing.T) {
	x := randomTensor(tensor.NewShape(2, 2, 3, 1), 6)
	checkGradient(t, NewFlatten("flat"), []*tensor.Tensor{x}, []int{0}, 1e-2, 1e-3)
}
