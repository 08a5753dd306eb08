// Package net drives an ordered list of layers over named tensors.
//
// Layers run strictly in the order they were added. Every tensor is
// produced once, either as a network input or as the top of exactly one
// layer, and consumed by at most one layer; fan-out goes through an
// explicit Split layer so that gradients are summed rather than overwritten.
package net

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/born-ml/strata/internal/layer"
	"github.com/born-ml/strata/internal/parallel"
	"github.com/born-ml/strata/internal/tensor"
)

// ErrWiring is wrapped by errors about how layers are connected.
var ErrWiring = errors.New("invalid network wiring")

// node is one layer bound to its tensors.
type node struct {
	layer       layer.Layer
	bottomNames []string
	topNames    []string
	bottoms     []*tensor.Tensor
	tops        []*tensor.Tensor
	propagate   []bool
	backward    bool
}

// Net is a sequential network of layers.
type Net struct {
	name     string
	logger   *slog.Logger
	par      *parallel.Config
	blobs    map[string]*tensor.Tensor
	names    []string
	inputs   map[string]bool
	consumed map[string]string
	nodes    []*node
	ready    bool
}

// Option configures a Net.
type Option func(*Net)

// WithLogger sets the logger for setup events. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(n *Net) { n.logger = l }
}

// WithParallelism applies cfg to every layer that supports it.
func WithParallelism(cfg parallel.Config) Option {
	return func(n *Net) { n.par = &cfg }
}

// New creates an empty network.
func New(name string, opts ...Option) *Net {
	n := &Net{
		name:     name,
		logger:   slog.Default(),
		blobs:    map[string]*tensor.Tensor{},
		inputs:   map[string]bool{},
		consumed: map[string]string{},
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With("net", name)
	return n
}

// Name returns the network name.
func (n *Net) Name() string {
	return n.name
}

// AddInput registers t as the network input called name. Inputs never
// receive gradients.
func (n *Net) AddInput(name string, t *tensor.Tensor) error {
	if _, ok := n.blobs[name]; ok {
		return fmt.Errorf("%w: tensor %q already exists", ErrWiring, name)
	}
	n.blobs[name] = t
	n.names = append(n.names, name)
	n.inputs[name] = true
	return nil
}

// Add appends l, reading the named bottoms and producing the named tops.
// Bottoms must already exist; tops must be new.
func (n *Net) Add(l layer.Layer, bottoms, tops []string) error {
	if n.ready {
		return fmt.Errorf("%w: cannot add layer %q after Init", ErrWiring, l.Name())
	}
	nd := &node{layer: l, bottomNames: bottoms, topNames: tops, backward: layer.HasBackward(l)}

	for _, b := range bottoms {
		t, ok := n.blobs[b]
		if !ok {
			return fmt.Errorf("%w: layer %q: unknown bottom %q", ErrWiring, l.Name(), b)
		}
		if by, ok := n.consumed[b]; ok {
			return fmt.Errorf("%w: layer %q: tensor %q is already consumed by layer %q; route it through a Split layer",
				ErrWiring, l.Name(), b, by)
		}
		nd.bottoms = append(nd.bottoms, t)
		nd.propagate = append(nd.propagate, !n.inputs[b])
	}
	for i, name := range tops {
		if _, ok := n.blobs[name]; ok {
			return fmt.Errorf("%w: layer %q: top %q already exists", ErrWiring, l.Name(), name)
		}
		for _, other := range tops[:i] {
			if other == name {
				return fmt.Errorf("%w: layer %q: top %q listed twice", ErrWiring, l.Name(), name)
			}
		}
	}

	for _, b := range bottoms {
		n.consumed[b] = l.Name()
	}
	for _, name := range tops {
		t := tensor.New(0, 0, 0, 0)
		n.blobs[name] = t
		n.names = append(n.names, name)
		nd.tops = append(nd.tops, t)
	}
	n.nodes = append(n.nodes, nd)
	return nil
}

// Init sets up every layer in order. Parameters are allocated here.
func (n *Net) Init() error {
	if n.ready {
		return nil
	}
	for _, nd := range n.nodes {
		if n.par != nil {
			if p, ok := nd.layer.(layer.Parallelizable); ok {
				p.SetParallelism(*n.par)
			}
		}
		if err := layer.SetUp(nd.layer, nd.bottoms, nd.tops); err != nil {
			return fmt.Errorf("setting up layer %q: %w", nd.layer.Name(), err)
		}
		for i, t := range nd.tops {
			n.logger.Debug("layer set up",
				"layer", nd.layer.Name(),
				"kind", nd.layer.Kind().String(),
				"top", nd.topNames[i],
				"shape", t.Shape().String())
		}
	}
	n.ready = true
	n.logger.Info("network initialized", "layers", len(n.nodes), "tensors", len(n.blobs))
	return nil
}

// Forward reshapes and runs every layer in order.
func (n *Net) Forward() error {
	if !n.ready {
		return fmt.Errorf("%w: Forward before Init", ErrWiring)
	}
	for _, nd := range n.nodes {
		if err := nd.layer.Reshape(nd.bottoms, nd.tops); err != nil {
			return fmt.Errorf("reshaping layer %q: %w", nd.layer.Name(), err)
		}
		if err := run(nd.layer, "Forward", func() { nd.layer.Forward(nd.bottoms, nd.tops) }); err != nil {
			return err
		}
	}
	return nil
}

// Backward runs every differentiable layer in reverse order. The caller
// fills the gradients of the output tensors first. Parameter gradients
// accumulate until ClearParamDiffs.
func (n *Net) Backward() error {
	if !n.ready {
		return fmt.Errorf("%w: Backward before Init", ErrWiring)
	}
	for i := len(n.nodes) - 1; i >= 0; i-- {
		nd := n.nodes[i]
		if !nd.backward || len(nd.bottoms) == 0 {
			continue
		}
		if err := run(nd.layer, "Backward", func() { nd.layer.Backward(nd.tops, nd.propagate, nd.bottoms) }); err != nil {
			return err
		}
	}
	return nil
}

// run converts a panic from a compute call into an error.
func run(l layer.Layer, op string, f func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok {
			err = fmt.Errorf("layer %q %s: %w", l.Name(), op, e)
			return
		}
		err = fmt.Errorf("layer %q %s: %v", l.Name(), op, r)
	}()
	f()
	return nil
}

// Blob returns the tensor called name, or nil.
func (n *Net) Blob(name string) *tensor.Tensor {
	return n.blobs[name]
}

// BlobNames returns every tensor name in creation order.
func (n *Net) BlobNames() []string {
	return n.names
}

// Outputs returns the tensors no layer consumes, in creation order.
func (n *Net) Outputs() []string {
	var out []string
	for _, name := range n.names {
		if _, ok := n.consumed[name]; !ok && !n.inputs[name] {
			out = append(out, name)
		}
	}
	return out
}

// Layers returns the layers in execution order.
func (n *Net) Layers() []layer.Layer {
	out := make([]layer.Layer, len(n.nodes))
	for i, nd := range n.nodes {
		out[i] = nd.layer
	}
	return out
}

// Params returns every learnable parameter.
func (n *Net) Params() []*tensor.Tensor {
	var out []*tensor.Tensor
	for _, nd := range n.nodes {
		out = append(out, nd.layer.Params()...)
	}
	return out
}

// ClearParamDiffs zeroes every parameter gradient.
func (n *Net) ClearParamDiffs() {
	for _, p := range n.Params() {
		p.ZeroDiff()
	}
}

// Close releases layer resources such as background loaders.
func (n *Net) Close() error {
	var errs []error
	for _, nd := range n.nodes {
		if c, ok := nd.layer.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing layer %q: %w", nd.layer.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
