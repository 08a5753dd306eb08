package layer

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/strata/internal/backend/cpu"
	"github.com/born-ml/strata/internal/parallel"
	"github.com/born-ml/strata/internal/tensor"
)

// MVNConfig configures a mean/variance normalization layer.
type MVNConfig struct {
	NormalizeVariance bool    `yaml:"normalize_variance"`
	AcrossChannels    bool    `yaml:"across_channels"` // One group per sample instead of per (sample, channel)
	Eps               float32 `yaml:"eps"`
}

// DefaultMVNConfig normalizes mean and variance per channel with eps = 1e-9.
func DefaultMVNConfig() MVNConfig {
	return MVNConfig{NormalizeVariance: true, Eps: 1e-9}
}

// MVN subtracts the mean of each normalization group and, optionally,
// divides by sqrt(variance + eps).
//
// A group is the H·W values of one (sample, channel) pair, or the C·H·W
// values of one sample when AcrossChannels is set.
//
// Backward with variance normalization applies
//
//	dx = (dy − mean(dy) − y·mean(dy·y)) / sqrt(var + eps)
//
// over each group; without it, dx = dy − mean(dy).
type MVN struct {
	base
	cfg MVNConfig
	std []float32 // Per-group sqrt(var + eps) from the last Forward
}

// NewMVN creates an MVN layer.
func NewMVN(name string, cfg MVNConfig) *MVN {
	return &MVN{base: newBase(name), cfg: cfg}
}

// Kind returns KindMVN.
func (l *MVN) Kind() Kind { return KindMVN }

// Multiplicity returns one bottom, one top.
func (l *MVN) Multiplicity() Multiplicity { return Exactly(1, 1) }

// LayerSetUp validates eps.
func (l *MVN) LayerSetUp(_, _ []*tensor.Tensor) error {
	if l.cfg.NormalizeVariance && l.cfg.Eps < 0 {
		return configError(l, "eps must be >= 0, got %g", l.cfg.Eps)
	}
	return nil
}

// Reshape sizes the top like the bottom and the per-group scratch.
func (l *MVN) Reshape(bottom, top []*tensor.Tensor) error {
	top[0].ReshapeLike(bottom[0])
	groups, _ := l.groups(bottom[0])
	if cap(l.std) >= groups {
		l.std = l.std[:groups]
	} else {
		l.std = make([]float32, groups)
	}
	return nil
}

// groups returns the number of normalization groups and their size.
func (l *MVN) groups(t *tensor.Tensor) (count, dim int) {
	if l.cfg.AcrossChannels {
		return t.Num(), t.Count(1, tensor.NumAxes)
	}
	return t.Count(0, 2), t.Count(2, tensor.NumAxes)
}

// Forward normalizes every group.
func (l *MVN) Forward(bottom, top []*tensor.Tensor) {
	in, out := bottom[0].Data(), top[0].Data()
	groups, dim := l.groups(bottom[0])
	if dim == 0 {
		return
	}
	inv := 1 / float32(dim)

	parallel.For(groups, func(g int) {
		x := in[g*dim : (g+1)*dim]
		y := out[g*dim : (g+1)*dim]
		copy(y, x)
		cpu.AddScalar(-cpu.Sum(x)*inv, y)
		if !l.cfg.NormalizeVariance {
			return
		}
		variance := cpu.Dot(y, y) * inv
		std := math32.Sqrt(variance + l.cfg.Eps)
		l.std[g] = std
		if std > 0 {
			cpu.Scale(1/std, y)
		}
	}, l.par)
}

// Backward applies the normalization gradient identity per group.
func (l *MVN) Backward(top []*tensor.Tensor, propagateDown []bool, bottom []*tensor.Tensor) {
	if !propagateDown[0] {
		return
	}
	y, dy := top[0].Data(), top[0].Diff()
	dx := bottom[0].Diff()
	groups, dim := l.groups(top[0])
	if dim == 0 {
		return
	}
	inv := 1 / float32(dim)

	parallel.For(groups, func(g int) {
		yg := y[g*dim : (g+1)*dim]
		dyg := dy[g*dim : (g+1)*dim]
		dxg := dx[g*dim : (g+1)*dim]
		meanDy := cpu.Sum(dyg) * inv
		if !l.cfg.NormalizeVariance {
			copy(dxg, dyg)
			cpu.AddScalar(-meanDy, dxg)
			return
		}
		meanDyY := cpu.Dot(dyg, yg) * inv
		std := l.std[g]
		if std == 0 {
			// Constant group with eps = 0: y is all zero and so is the gradient.
			clear(dxg)
			return
		}
		for i, v := range dyg {
			dxg[i] = (v - meanDy - yg[i]*meanDyY) / std
		}
	}, l.par)
}
