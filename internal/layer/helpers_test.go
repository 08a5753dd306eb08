package layer

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/strata/internal/tensor"
)

// filled returns a tensor of shape s with every value set to v.
func filled(s tensor.Shape, v float32) *tensor.Tensor {
	t := tensor.NewFromShape(s)
	for i := range t.Data() {
		t.Data()[i] = v
	}
	return t
}

// randomTensor returns a tensor with values drawn from U(-1, 1).
func randomTensor(s tensor.Shape, seed uint64) *tensor.Tensor {
	rng := rand.New(rand.NewPCG(seed, 7))
	t := tensor.NewFromShape(s)
	for i := range t.Data() {
		t.Data()[i] = rng.Float32()*2 - 1
	}
	return t
}

// fromSlice wraps tensor.FromSlice for tests.
func fromSlice(t *testing.T, data []float32, s tensor.Shape) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromSlice(data, s)
	require.NoError(t, err)
	return x
}

// empties returns n empty tensors to be shaped by a layer.
func empties(n int) []*tensor.Tensor {
	out := make([]*tensor.Tensor, n)
	for i := range out {
		out[i] = tensor.New(0, 0, 0, 0)
	}
	return out
}

func allTrue(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}

// weightedLoss returns Σ_k Σ_i top_k[i]·w_k[i].
func weightedLoss(top []*tensor.Tensor, weights [][]float32) float64 {
	var loss float64
	for k, t := range top {
		for i, v := range t.Data() {
			loss += float64(v) * float64(weights[k][i])
		}
	}
	return loss
}

// checkGradient compares the analytic bottom gradients of l against central
// finite differences of a random linear loss over the tops. Only the bottoms
// listed in check are perturbed.
func checkGradient(t *testing.T, l Layer, bottom []*tensor.Tensor, check []int, step, tol float64) {
	t.Helper()
	top := empties(l.Multiplicity().MinTops)
	require.NoError(t, SetUp(l, bottom, top))

	forward := func() {
		require.NoError(t, l.Reshape(bottom, top))
		l.Forward(bottom, top)
	}
	forward()

	rng := rand.New(rand.NewPCG(42, 1))
	weights := make([][]float32, len(top))
	for k, tp := range top {
		weights[k] = make([]float32, tp.NumElements())
		for i := range weights[k] {
			weights[k][i] = rng.Float32()*2 - 1
		}
	}

	// Analytic gradient: dL/dtop = weights.
	for k, tp := range top {
		copy(tp.Diff(), weights[k])
	}
	propagate := make([]bool, len(bottom))
	for _, b := range check {
		propagate[b] = true
	}
	l.Backward(top, propagate, bottom)
	analytic := make([][]float32, len(bottom))
	for _, b := range check {
		analytic[b] = append([]float32(nil), bottom[b].Diff()...)
	}

	for _, b := range check {
		data := bottom[b].Data()
		for i := range data {
			orig := data[i]
			data[i] = orig + float32(step)
			forward()
			plus := weightedLoss(top, weights)
			data[i] = orig - float32(step)
			forward()
			minus := weightedLoss(top, weights)
			data[i] = orig

			numeric := (plus - minus) / (2 * step)
			got := float64(analytic[b][i])
			scale := math.Max(1, math.Max(math.Abs(numeric), math.Abs(got)))
			if math.Abs(numeric-got) > tol*scale {
				t.Errorf("bottom %d element %d: analytic %v, numeric %v", b, i, got, numeric)
			}
		}
	}
	forward()
}
