package layer

import (
	"github.com/born-ml/strata/internal/tensor"
)

// Flatten reshapes (N, C, H, W) into (N, C·H·W, 1, 1) without copying.
//
// The top borrows the bottom's data buffer in Forward, and the bottom borrows
// the top's gradient buffer in Backward. The borrows last until either
// tensor is reshaped to a different element count.
type Flatten struct {
	base
}

// NewFlatten creates a Flatten layer.
func NewFlatten(name string) *Flatten {
	return &Flatten{base: newBase(name)}
}

// Kind returns KindFlatten.
func (l *Flatten) Kind() Kind { return KindFlatten }

// Multiplicity returns one bottom, one top.
func (l *Flatten) Multiplicity() Multiplicity { return Exactly(1, 1) }

// Reshape sizes the top to (N, C·H·W, 1, 1).
func (l *Flatten) Reshape(bottom, top []*tensor.Tensor) error {
	b := bottom[0]
	top[0].Reshape(tensor.NewShape(b.Num(), b.Count(1, tensor.NumAxes), 1, 1))
	return nil
}

// Forward aliases the top's data to the bottom's.
func (l *Flatten) Forward(bottom, top []*tensor.Tensor) {
	top[0].ShareData(bottom[0])
}

// Backward aliases the bottom's gradient to the top's.
func (l *Flatten) Backward(top []*tensor.Tensor, propagateDown []bool, bottom []*tensor.Tensor) {
	if !propagateDown[0] {
		return
	}
	bottom[0].ShareDiff(top[0])
}
