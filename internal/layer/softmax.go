package layer

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/strata/internal/backend/cpu"
	"github.com/born-ml/strata/internal/parallel"
	"github.com/born-ml/strata/internal/tensor"
)

// SoftmaxConfig configures a Softmax layer.
type SoftmaxConfig struct {
	Axis int `yaml:"axis"` // Normalized axis, default 1 (channels)
}

// DefaultSoftmaxConfig normalizes over channels.
func DefaultSoftmaxConfig() SoftmaxConfig {
	return SoftmaxConfig{Axis: tensor.AxisChannels}
}

// Softmax normalizes each group of values along Axis into a distribution.
//
// Forward subtracts the group maximum before exponentiating, so adding a
// constant to a group leaves its output unchanged. Backward uses the
// Jacobian-vector product dx = y·(dy − Σ dy·y) per group.
type Softmax struct {
	base
	cfg SoftmaxConfig
}

// NewSoftmax creates a Softmax layer.
func NewSoftmax(name string, cfg SoftmaxConfig) *Softmax {
	return &Softmax{base: newBase(name), cfg: cfg}
}

// Kind returns KindSoftmax.
func (l *Softmax) Kind() Kind { return KindSoftmax }

// Multiplicity returns one bottom, one top.
func (l *Softmax) Multiplicity() Multiplicity { return Exactly(1, 1) }

// LayerSetUp validates the axis.
func (l *Softmax) LayerSetUp(_, _ []*tensor.Tensor) error {
	if l.cfg.Axis < 0 || l.cfg.Axis >= tensor.NumAxes {
		return configError(l, "axis %d out of range [0, %d)", l.cfg.Axis, tensor.NumAxes)
	}
	return nil
}

// Reshape sizes the top like the bottom.
func (l *Softmax) Reshape(bottom, top []*tensor.Tensor) error {
	top[0].ReshapeLike(bottom[0])
	return nil
}

// dims returns the outer count, the group size and the inner stride.
func (l *Softmax) dims(t *tensor.Tensor) (outer, channels, inner int) {
	s := t.Shape()
	return s.Count(0, l.cfg.Axis), s[l.cfg.Axis], s.Count(l.cfg.Axis+1, tensor.NumAxes)
}

// Forward computes the stabilized softmax of every group.
func (l *Softmax) Forward(bottom, top []*tensor.Tensor) {
	in, out := bottom[0].Data(), top[0].Data()
	outer, channels, inner := l.dims(bottom[0])
	block := channels * inner

	parallel.For(outer, func(n int) {
		x := in[n*block : (n+1)*block]
		y := out[n*block : (n+1)*block]
		for p := 0; p < inner; p++ {
			peak := cpu.StridedMax(x[p:], channels, inner)
			var sum float32
			for c := 0; c < channels; c++ {
				e := math32.Exp(x[c*inner+p] - peak)
				y[c*inner+p] = e
				sum += e
			}
			for c := 0; c < channels; c++ {
				y[c*inner+p] /= sum
			}
		}
	}, l.par)
}

// Backward computes dx = y·(dy − Σ_c dy·y) per group.
func (l *Softmax) Backward(top []*tensor.Tensor, propagateDown []bool, bottom []*tensor.Tensor) {
	if !propagateDown[0] {
		return
	}
	y, dy := top[0].Data(), top[0].Diff()
	dx := bottom[0].Diff()
	outer, channels, inner := l.dims(top[0])
	block := channels * inner

	parallel.For(outer, func(n int) {
		yn := y[n*block : (n+1)*block]
		dyn := dy[n*block : (n+1)*block]
		dxn := dx[n*block : (n+1)*block]
		for p := 0; p < inner; p++ {
			var dot float32
			for c := 0; c < channels; c++ {
				dot += dyn[c*inner+p] * yn[c*inner+p]
			}
			for c := 0; c < channels; c++ {
				i := c*inner + p
				dxn[i] = yn[i] * (dyn[i] - dot)
			}
		}
	}, l.par)
}
