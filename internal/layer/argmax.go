package layer

import (
	"slices"

	"github.com/born-ml/strata/internal/parallel"
	"github.com/born-ml/strata/internal/tensor"
)

// ArgMaxConfig configures an ArgMax layer.
type ArgMaxConfig struct {
	TopK      int  `yaml:"top_k"`       // Number of largest entries per sample, >= 1
	OutMaxVal bool `yaml:"out_max_val"` // Also emit the values after the indices
}

// DefaultArgMaxConfig returns TopK = 1 without values.
func DefaultArgMaxConfig() ArgMaxConfig {
	return ArgMaxConfig{TopK: 1}
}

// ArgMax finds the TopK largest values of each sample's C·H·W entries.
//
// Output shape is (N, 1, TopK, 1) holding indices, or (N, 2, TopK, 1)
// holding the indices followed by the values when OutMaxVal is set. Ties
// are broken in favour of the smaller index.
//
// ArgMax is not differentiable: Backward panics with a *NotImplementedError.
type ArgMax struct {
	base
	cfg ArgMaxConfig
}

// NewArgMax creates an ArgMax layer.
func NewArgMax(name string, cfg ArgMaxConfig) *ArgMax {
	return &ArgMax{base: newBase(name), cfg: cfg}
}

// Kind returns KindArgMax.
func (l *ArgMax) Kind() Kind { return KindArgMax }

// Multiplicity returns one bottom, one top.
func (l *ArgMax) Multiplicity() Multiplicity { return Exactly(1, 1) }

// LayerSetUp validates TopK against the sample size.
func (l *ArgMax) LayerSetUp(bottom, _ []*tensor.Tensor) error {
	if l.cfg.TopK < 1 {
		return configError(l, "top_k must be >= 1, got %d", l.cfg.TopK)
	}
	if dim := bottom[0].Count(1, tensor.NumAxes); l.cfg.TopK > dim {
		return configError(l, "top_k %d exceeds sample size %d", l.cfg.TopK, dim)
	}
	return nil
}

// Reshape sizes the top to (N, 1|2, TopK, 1).
func (l *ArgMax) Reshape(bottom, top []*tensor.Tensor) error {
	if dim := bottom[0].Count(1, tensor.NumAxes); l.cfg.TopK > dim {
		return configError(l, "top_k %d exceeds sample size %d", l.cfg.TopK, dim)
	}
	channels := 1
	if l.cfg.OutMaxVal {
		channels = 2
	}
	top[0].Reshape(tensor.NewShape(bottom[0].Num(), channels, l.cfg.TopK, 1))
	return nil
}

// Forward writes the top-k indices (and values) of each sample.
func (l *ArgMax) Forward(bottom, top []*tensor.Tensor) {
	in := bottom[0].Data()
	out := top[0].Data()
	num := bottom[0].Num()
	dim := bottom[0].Count(1, tensor.NumAxes)
	k := l.cfg.TopK

	stride := k
	if l.cfg.OutMaxVal {
		stride = 2 * k
	}

	parallel.For(num, func(n int) {
		sample := in[n*dim : (n+1)*dim]
		order := make([]int, dim)
		for i := range order {
			order[i] = i
		}
		// Stable sort keeps the smaller index first among equal values.
		slices.SortStableFunc(order, func(a, b int) int {
			switch {
			case sample[a] > sample[b]:
				return -1
			case sample[a] < sample[b]:
				return 1
			}
			return 0
		})

		dst := out[n*stride : (n+1)*stride]
		for j := 0; j < k; j++ {
			dst[j] = float32(order[j])
			if l.cfg.OutMaxVal {
				dst[k+j] = sample[order[j]]
			}
		}
	}, l.par)
}

// Backward panics: ArgMax has no gradient.
func (l *ArgMax) Backward(_ []*tensor.Tensor, _ []bool, _ []*tensor.Tensor) {
	panic(&NotImplementedError{Kind: KindArgMax, Op: "Backward"})
}

func (l *ArgMax) noBackward() {}
