package layer

import (
	"github.com/samber/lo"

	"github.com/born-ml/strata/internal/tensor"
)

// ConcatConfig configures a Concat layer.
type ConcatConfig struct {
	Dim int `yaml:"dim"` // 0 = batch, 1 = channel
}

// DefaultConcatConfig concatenates along channels.
func DefaultConcatConfig() ConcatConfig {
	return ConcatConfig{Dim: tensor.AxisChannels}
}

// Concat joins two or more bottoms along the batch or channel axis.
//
// All bottoms must agree on every other axis. Backward hands each bottom the
// slice of the top gradient at the offset its data was copied to.
//
// Example:
//
//	inputs: (2,3,4,4) and (2,3,4,4) along dim=1
//	output: (2,6,4,4), channels 0-2 from the first input, 3-5 from the second
type Concat struct {
	base
	cfg ConcatConfig
}

// NewConcat creates a Concat layer.
func NewConcat(name string, cfg ConcatConfig) *Concat {
	return &Concat{base: newBase(name), cfg: cfg}
}

// Kind returns KindConcat.
func (l *Concat) Kind() Kind { return KindConcat }

// Multiplicity returns at least two bottoms, one top.
func (l *Concat) Multiplicity() Multiplicity {
	return Multiplicity{MinBottoms: 2, MaxBottoms: Unconstrained, MinTops: 1, MaxTops: 1}
}

// LayerSetUp validates the concat dimension.
func (l *Concat) LayerSetUp(_, _ []*tensor.Tensor) error {
	if l.cfg.Dim != tensor.AxisNum && l.cfg.Dim != tensor.AxisChannels {
		return configError(l, "dim must be 0 or 1, got %d", l.cfg.Dim)
	}
	return nil
}

// Reshape checks the bottoms agree outside Dim and sizes the top.
func (l *Concat) Reshape(bottom, top []*tensor.Tensor) error {
	first := bottom[0].Shape()
	for i, b := range bottom[1:] {
		if !first.EqualExcept(b.Shape(), l.cfg.Dim) {
			return configError(l, "bottom %d shape %v does not match bottom 0 shape %v outside dim %d",
				i+1, b.Shape(), first, l.cfg.Dim)
		}
	}
	total := lo.SumBy(bottom, func(b *tensor.Tensor) int { return b.Shape()[l.cfg.Dim] })
	top[0].Reshape(first.With(l.cfg.Dim, total))
	return nil
}

// Forward copies each bottom into its region of the top.
func (l *Concat) Forward(bottom, top []*tensor.Tensor) {
	out := top[0].Data()
	topAxis := top[0].Shape()[l.cfg.Dim]
	offset := 0
	for _, b := range bottom {
		axis := b.Shape()[l.cfg.Dim]
		copyAlongAxis(out, b.Data(), l.cfg.Dim, b.Shape(), topAxis, offset, true)
		offset += axis
	}
}

// Backward copies each region of the top gradient back to its bottom.
func (l *Concat) Backward(top []*tensor.Tensor, propagateDown []bool, bottom []*tensor.Tensor) {
	grad := top[0].Diff()
	topAxis := top[0].Shape()[l.cfg.Dim]
	offset := 0
	for i, b := range bottom {
		axis := b.Shape()[l.cfg.Dim]
		if propagateDown[i] {
			copyAlongAxis(grad, b.Diff(), l.cfg.Dim, b.Shape(), topAxis, offset, false)
		}
		offset += axis
	}
}

// copyAlongAxis moves a part tensor of shape part into (or, when toWhole is
// false, out of) a whole tensor that is identical except for having
// wholeAxis entries along axis. The part occupies [offset, offset+part[axis])
// of the whole along that axis.
func copyAlongAxis(whole, partData []float32, axis int, part tensor.Shape, wholeAxis, offset int, toWhole bool) {
	outer := part.Count(0, axis)
	inner := part.Count(axis+1, tensor.NumAxes)
	partAxis := part[axis]
	block := partAxis * inner
	for n := 0; n < outer; n++ {
		w := whole[(n*wholeAxis+offset)*inner:][:block]
		p := partData[n*block:][:block]
		if toWhole {
			copy(w, p)
		} else {
			copy(p, w)
		}
	}
}
