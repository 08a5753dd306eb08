package layer

import (
	"github.com/born-ml/strata/internal/tensor"
)

// Silence consumes its bottoms and produces nothing.
// Backward zeroes each bottom gradient so stale values cannot leak.
type Silence struct {
	base
}

// NewSilence creates a Silence layer.
func NewSilence(name string) *Silence {
	return &Silence{base: newBase(name)}
}

// Kind returns KindSilence.
func (l *Silence) Kind() Kind { return KindSilence }

// Multiplicity returns at least one bottom, no tops.
func (l *Silence) Multiplicity() Multiplicity {
	return Multiplicity{MinBottoms: 1, MaxBottoms: Unconstrained, MinTops: 0, MaxTops: 0}
}

// Reshape does nothing.
func (l *Silence) Reshape(_, _ []*tensor.Tensor) error { return nil }

// Forward does nothing.
func (l *Silence) Forward(_, _ []*tensor.Tensor) {}

// Backward zeroes the gradient of every bottom marked for propagation.
func (l *Silence) Backward(_ []*tensor.Tensor, propagateDown []bool, bottom []*tensor.Tensor) {
	for i, b := range bottom {
		if propagateDown[i] {
			b.ZeroDiff()
		}
	}
}
