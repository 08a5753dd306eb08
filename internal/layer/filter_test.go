package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strata/internal/tensor"
)

// filterBottoms builds a batch of four items: condition scores over three
// classes, a two-value payload and one label per item.
func filterBottoms(t *testing.T) []*tensor.Tensor {
	t.Helper()
	cond := fromSlice(t, []float32{
		0.9, 0.1, 0.0, // argmax 0
		0.1, 0.8, 0.1, // argmax 1
		0.2, 0.2, 0.6, // argmax 2
		0.7, 0.2, 0.1, // argmax 0
	}, tensor.NewShape(4, 3, 1, 1))
	payload := fromSlice(t, []float32{1, 1, 2, 2, 3, 3, 4, 4}, tensor.NewShape(4, 2, 1, 1))
	labels := fromSlice(t, []float32{0, 0, 2, 1}, tensor.NewShape(4, 1, 1, 1))
	return []*tensor.Tensor{cond, payload, labels}
}

func TestFilter_Modes(t *testing.T) {
	tests := []struct {
		name   string
		cfg    FilterConfig
		passed []int
	}{
		{"argmax equals", FilterConfig{Mode: FilterArgMaxEquals, Index: 0}, []int{0, 3}},
		{"argmax differs", FilterConfig{Mode: FilterArgMaxDiffers, Index: 0}, []int{1, 2}},
		{"label equals", FilterConfig{Mode: FilterLabelEquals}, []int{0, 2}},
		{"threshold above", FilterConfig{Mode: FilterThresholdAbove, Index: 1, Threshold: 0.15}, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bottom := filterBottoms(t)
			l := NewFilter("filter", tt.cfg)
			top := empties(2)
			require.NoError(t, SetUp(l, bottom, top))
			require.NoError(t, l.Reshape(bottom, top))
			l.Forward(bottom, top)

			require.Equal(t, tt.passed, l.Passed())
			s := len(tt.passed)
			assert.Equal(t, tensor.NewShape(s, 1, 1, 1), top[0].Shape())
			assert.Equal(t, tensor.NewShape(s, 2, 1, 1), top[1].Shape())
			for i, n := range tt.passed {
				assert.Equal(t, bottom[2].Data()[n], top[0].Data()[i], "label %d", i)
				assert.Equal(t, bottom[1].Data()[2*n:2*n+2], top[1].Data()[2*i:2*i+2], "payload %d", i)
			}
		})
	}
}

func TestFilter_BackwardScatters(t *testing.T) {
	bottom := filterBottoms(t)
	copy(bottom[1].Diff(), []float32{9, 9, 9, 9, 9, 9, 9, 9})
	l := NewFilter("filter", FilterConfig{Mode: FilterArgMaxEquals, Index: 0})
	top := empties(2)
	require.NoError(t, SetUp(l, bottom, top))
	require.NoError(t, l.Reshape(bottom, top))
	l.Forward(bottom, top)

	copy(top[1].Diff(), []float32{1, 2, 3, 4})
	l.Backward(top, []bool{false, true, false}, bottom)

	assert.Equal(t, []float32{1, 2, 0, 0, 0, 0, 3, 4}, bottom[1].Diff())
}

// TestFilter_BackwardSkipsConditionAndLabels checks the condition and labels
// bottoms keep their gradients even when propagation is requested for them.
func TestFilter_BackwardSkipsConditionAndLabels(t *testing.T) {
	bottom := filterBottoms(t)
	copy(bottom[0].Diff(), []float32{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5})
	copy(bottom[2].Diff(), []float32{7, 7, 7, 7})
	l := NewFilter("filter", FilterConfig{Mode: FilterArgMaxDiffers, Index: 0})
	top := empties(2)
	require.NoError(t, SetUp(l, bottom, top))
	require.NoError(t, l.Reshape(bottom, top))
	l.Forward(bottom, top)

	copy(top[0].Diff(), []float32{1, 1})
	copy(top[1].Diff(), []float32{1, 2, 3, 4})
	l.Backward(top, []bool{true, true, true}, bottom)

	assert.Equal(t, []float32{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5}, bottom[0].Diff())
	assert.Equal(t, []float32{7, 7, 7, 7}, bottom[2].Diff())
	assert.Equal(t, []float32{0, 0, 1, 2, 3, 4, 0, 0}, bottom[1].Diff())
}

// TestFilter_SetUpPassesEverything checks the setup-time Reshape sizes the
// tops to the full batch without evaluating the predicate.
func TestFilter_SetUpPassesEverything(t *testing.T) {
	bottom := filterBottoms(t)
	l := NewFilter("filter", FilterConfig{Mode: FilterThresholdAbove, Index: 0, Threshold: 5})
	top := empties(2)
	require.NoError(t, SetUp(l, bottom, top))

	assert.Equal(t, []int{0, 1, 2, 3}, l.Passed())
	assert.Equal(t, tensor.NewShape(4, 1, 1, 1), top[0].Shape())
	assert.Equal(t, tensor.NewShape(4, 2, 1, 1), top[1].Shape())

	require.NoError(t, l.Reshape(bottom, top))
	assert.Empty(t, l.Passed())
	assert.Equal(t, 0, top[1].Num())
}

func TestFilter_NonePass(t *testing.T) {
	bottom := filterBottoms(t)
	l := NewFilter("filter", FilterConfig{Mode: FilterThresholdAbove, Index: 0, Threshold: 5})
	top := empties(2)
	require.NoError(t, SetUp(l, bottom, top))
	require.NoError(t, l.Reshape(bottom, top))
	l.Forward(bottom, top)

	assert.Empty(t, l.Passed())
	assert.Equal(t, 0, top[1].Num())
	assert.Equal(t, 0, top[1].NumElements())
}

func TestFilter_Errors(t *testing.T) {
	t.Run("batch mismatch", func(t *testing.T) {
		bottom := filterBottoms(t)
		bottom[2] = tensor.New(3, 1, 1, 1)
		err := SetUp(NewFilter("f", FilterConfig{}), bottom, empties(2))
		assert.ErrorIs(t, err, ErrConfig)
	})
	t.Run("index out of range", func(t *testing.T) {
		err := SetUp(NewFilter("f", FilterConfig{Index: 3}), filterBottoms(t), empties(2))
		assert.ErrorIs(t, err, ErrConfig)
	})
	t.Run("unknown mode", func(t *testing.T) {
		var m FilterMode
		assert.ErrorIs(t, m.UnmarshalText([]byte("sometimes")), ErrConfig)
		require.NoError(t, m.UnmarshalText([]byte("LABEL_EQUALS")))
		assert.Equal(t, FilterLabelEquals, m)
	})
}
