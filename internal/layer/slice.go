package layer

import (
	"github.com/samber/lo"

	"github.com/born-ml/strata/internal/tensor"
)

// SliceConfig configures a Slice layer.
type SliceConfig struct {
	Dim         int   `yaml:"dim"`          // 0 = batch, 1 = channel
	SlicePoints []int `yaml:"slice_points"` // Strictly increasing boundaries; empty = equal parts
}

// DefaultSliceConfig slices channels into equal parts.
func DefaultSliceConfig() SliceConfig {
	return SliceConfig{Dim: tensor.AxisChannels}
}

// Slice partitions one bottom into two or more tops along Dim.
//
// With SlicePoints [p1, ..., pk] the tops receive [0,p1), [p1,p2), ...,
// [pk, D). Without slice points D must divide evenly by the top count.
// Backward is the inverse: each top gradient lands at its original offset.
type Slice struct {
	base
	cfg   SliceConfig
	sizes []int
}

// NewSlice creates a Slice layer.
func NewSlice(name string, cfg SliceConfig) *Slice {
	return &Slice{base: newBase(name), cfg: cfg}
}

// Kind returns KindSlice.
func (l *Slice) Kind() Kind { return KindSlice }

// Multiplicity returns one bottom, at least two tops.
func (l *Slice) Multiplicity() Multiplicity {
	return Multiplicity{MinBottoms: 1, MaxBottoms: 1, MinTops: 2, MaxTops: Unconstrained}
}

// LayerSetUp validates the dimension and the slice point count.
func (l *Slice) LayerSetUp(_, top []*tensor.Tensor) error {
	if l.cfg.Dim != tensor.AxisNum && l.cfg.Dim != tensor.AxisChannels {
		return configError(l, "dim must be 0 or 1, got %d", l.cfg.Dim)
	}
	if n := len(l.cfg.SlicePoints); n > 0 && n != len(top)-1 {
		return configError(l, "%d slice points for %d tops, need %d", n, len(top), len(top)-1)
	}
	return nil
}

// Reshape derives the part sizes and sizes each top.
func (l *Slice) Reshape(bottom, top []*tensor.Tensor) error {
	shape := bottom[0].Shape()
	axis := shape[l.cfg.Dim]

	sizes, err := l.partSizes(axis, len(top))
	if err != nil {
		return err
	}
	l.sizes = sizes
	for i, t := range top {
		t.Reshape(shape.With(l.cfg.Dim, sizes[i]))
	}
	return nil
}

func (l *Slice) partSizes(axis, parts int) ([]int, error) {
	if len(l.cfg.SlicePoints) == 0 {
		if axis%parts != 0 {
			return nil, configError(l, "dim %d of size %d does not split evenly into %d tops", l.cfg.Dim, axis, parts)
		}
		return lo.Times(parts, func(int) int { return axis / parts }), nil
	}

	sizes := make([]int, 0, parts)
	prev := 0
	for i, p := range l.cfg.SlicePoints {
		if p <= prev {
			return nil, configError(l, "slice point %d (%d) must be greater than %d", i, p, prev)
		}
		if p >= axis {
			return nil, configError(l, "slice point %d (%d) out of range for dim size %d", i, p, axis)
		}
		sizes = append(sizes, p-prev)
		prev = p
	}
	return append(sizes, axis-prev), nil
}

// Forward copies each part of the bottom into its top.
func (l *Slice) Forward(bottom, top []*tensor.Tensor) {
	in := bottom[0].Data()
	axis := bottom[0].Shape()[l.cfg.Dim]
	offset := 0
	for _, t := range top {
		copyAlongAxis(in, t.Data(), l.cfg.Dim, t.Shape(), axis, offset, false)
		offset += t.Shape()[l.cfg.Dim]
	}
}

// Backward reassembles the bottom gradient from the top gradients.
func (l *Slice) Backward(top []*tensor.Tensor, propagateDown []bool, bottom []*tensor.Tensor) {
	if !propagateDown[0] {
		return
	}
	grad := bottom[0].Diff()
	axis := bottom[0].Shape()[l.cfg.Dim]
	offset := 0
	for _, t := range top {
		copyAlongAxis(grad, t.Diff(), l.cfg.Dim, t.Shape(), axis, offset, true)
		offset += t.Shape()[l.cfg.Dim]
	}
}

// Sizes returns the part sizes computed by the last Reshape.
func (l *Slice) Sizes() []int {
	return l.sizes
}
