// Package layer implements the computational units of a layered network.
//
// Every layer consumes a list of bottom tensors and fills a list of top
// tensors. The external driver calls, in order:
//
//  1. SetUp once per configuration: checks bottom/top multiplicity,
//     validates the layer's configuration against the first input shapes,
//     allocates parameters and runs the first Reshape.
//  2. Reshape before every Forward, recomputing top shapes from the
//     current bottom shapes.
//  3. Forward, producing top data from bottom data.
//  4. Backward (training only), producing bottom diffs from top diffs for
//     each bottom whose propagate-down flag is set.
//
// Configuration problems surface as errors wrapping ErrConfig from SetUp and
// Reshape. Forward and Backward never return errors: misuse panics, and a
// non-differentiable layer panics with a *NotImplementedError from Backward.
//
// Example:
//
//	concat := layer.NewConcat("concat", layer.ConcatConfig{Dim: 1})
//	top := []*tensor.Tensor{tensor.New(0, 0, 0, 0)}
//	if err := layer.SetUp(concat, []*tensor.Tensor{a, b}, top); err != nil {
//	    return err
//	}
//	concat.Forward([]*tensor.Tensor{a, b}, top)
package layer

import (
	"fmt"

	"github.com/born-ml/strata/internal/parallel"
	"github.com/born-ml/strata/internal/tensor"
)

// Layer is the capability set every variant implements.
type Layer interface {
	// Kind returns the variant tag.
	Kind() Kind

	// Name returns the instance name given at construction.
	Name() string

	// Multiplicity returns the static bottom/top count contract.
	Multiplicity() Multiplicity

	// LayerSetUp validates the configuration against the first observed
	// bottoms and allocates persistent parameters. Called once.
	LayerSetUp(bottom, top []*tensor.Tensor) error

	// Reshape computes top shapes from the current bottom shapes and
	// reallocates tops and internal buffers as needed.
	Reshape(bottom, top []*tensor.Tensor) error

	// Forward computes top data from bottom data.
	Forward(bottom, top []*tensor.Tensor)

	// Backward computes bottom diffs from top diffs. propagateDown[i]
	// gates the gradient for bottom[i].
	Backward(top []*tensor.Tensor, propagateDown []bool, bottom []*tensor.Tensor)

	// Params returns the learnable parameter tensors (empty for most layers).
	Params() []*tensor.Tensor
}

// Unconstrained marks a multiplicity bound that is not checked.
const Unconstrained = -1

// Multiplicity is a layer's static bottom/top count contract.
// A minimum equal to its maximum is an exact count.
type Multiplicity struct {
	MinBottoms int
	MaxBottoms int
	MinTops    int
	MaxTops    int
}

// Exactly returns a contract with exact bottom and top counts.
func Exactly(bottoms, tops int) Multiplicity {
	return Multiplicity{MinBottoms: bottoms, MaxBottoms: bottoms, MinTops: tops, MaxTops: tops}
}

// check reports a ConfigError when nb bottoms or nt tops violate m.
func (m Multiplicity) check(l Layer, nb, nt int) error {
	if msg := bound("bottom", nb, m.MinBottoms, m.MaxBottoms); msg != "" {
		return configError(l, "%s", msg)
	}
	if msg := bound("top", nt, m.MinTops, m.MaxTops); msg != "" {
		return configError(l, "%s", msg)
	}
	return nil
}

func bound(what string, n, lo, hi int) string {
	switch {
	case lo == hi && lo != Unconstrained && n != lo:
		return fmt.Sprintf("takes exactly %d %s tensor(s), got %d", lo, what, n)
	case lo != Unconstrained && n < lo:
		return fmt.Sprintf("takes at least %d %s tensor(s), got %d", lo, what, n)
	case hi != Unconstrained && n > hi:
		return fmt.Sprintf("takes at most %d %s tensor(s), got %d", hi, what, n)
	}
	return ""
}

// SetUp checks l's multiplicity contract, runs its one-time setup and the
// first Reshape.
func SetUp(l Layer, bottom, top []*tensor.Tensor) error {
	if err := l.Multiplicity().check(l, len(bottom), len(top)); err != nil {
		return err
	}
	if err := l.LayerSetUp(bottom, top); err != nil {
		return err
	}
	return l.Reshape(bottom, top)
}

// backwardless is implemented by layers whose Backward panics.
type backwardless interface {
	noBackward()
}

// HasBackward reports whether l defines a Backward pass. Drivers skip
// Backward for layers that do not.
func HasBackward(l Layer) bool {
	_, ok := l.(backwardless)
	return !ok
}

// Parallelizable is implemented by layers whose per-sample work can be
// spread over goroutines.
type Parallelizable interface {
	SetParallelism(cfg parallel.Config)
}

// base holds the state shared by every layer.
type base struct {
	name string
	par  parallel.Config
}

func newBase(name string) base {
	return base{name: name, par: parallel.DefaultConfig()}
}

// Name returns the layer's instance name.
func (b *base) Name() string {
	return b.name
}

// Params returns no parameters.
func (b *base) Params() []*tensor.Tensor {
	return nil
}

// SetParallelism sets the per-sample parallel loop configuration.
func (b *base) SetParallelism(cfg parallel.Config) {
	b.par = cfg
}

// LayerSetUp does nothing by default.
func (b *base) LayerSetUp(_, _ []*tensor.Tensor) error {
	return nil
}
