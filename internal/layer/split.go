package layer

import (
	"github.com/born-ml/strata/internal/backend/cpu"
	"github.com/born-ml/strata/internal/tensor"
)

// Split replicates one bottom into one or more tops.
//
// Tops borrow the bottom's data buffer, so Forward copies nothing and all
// readers see the same values. Backward sums every top gradient into the
// bottom gradient: the bottom diff is zeroed first and each top is then
// accumulated in order on the calling goroutine.
type Split struct {
	base
}

// NewSplit creates a Split layer.
func NewSplit(name string) *Split {
	return &Split{base: newBase(name)}
}

// Kind returns KindSplit.
func (l *Split) Kind() Kind { return KindSplit }

// Multiplicity returns one bottom, at least one top.
func (l *Split) Multiplicity() Multiplicity {
	return Multiplicity{MinBottoms: 1, MaxBottoms: 1, MinTops: 1, MaxTops: Unconstrained}
}

// Reshape sizes every top like the bottom and shares its data.
func (l *Split) Reshape(bottom, top []*tensor.Tensor) error {
	for _, t := range top {
		t.ReshapeLike(bottom[0])
		t.ShareData(bottom[0])
	}
	return nil
}

// Forward re-establishes the data shares; no values are copied.
func (l *Split) Forward(bottom, top []*tensor.Tensor) {
	for _, t := range top {
		t.ShareData(bottom[0])
	}
}

// Backward accumulates the sum of all top gradients into the bottom.
func (l *Split) Backward(top []*tensor.Tensor, propagateDown []bool, bottom []*tensor.Tensor) {
	if !propagateDown[0] {
		return
	}
	grad := bottom[0].Diff()
	clear(grad)
	for _, t := range top {
		cpu.Axpy(1, t.Diff(), grad)
	}
}
