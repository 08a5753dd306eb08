// Package config loads pipeline descriptions from YAML.
//
// A pipeline names its input tensors and an ordered list of layers wired by
// tensor name:
//
//	name: classify
//	workers: 4
//	inputs:
//	  - name: scores
//	    shape: [8, 10, 1, 1]
//	    fill: {type: gaussian, std: 1, seed: 7}
//	layers:
//	  - name: prob
//	    type: Softmax
//	    bottoms: [scores]
//	    tops: [prob]
//	  - name: top1
//	    type: ArgMax
//	    bottoms: [prob]
//	    tops: [label]
//	    params: {top_k: 1, out_max_val: true}
//
// Layer params decode into the variant's configuration struct on top of its
// defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	// Registers the IndexedData layer.
	_ "github.com/born-ml/strata/internal/feed"
	"github.com/born-ml/strata/internal/layer"
	"github.com/born-ml/strata/internal/tensor"
)

// ErrInvalid is wrapped by every pipeline validation error.
var ErrInvalid = errors.New("invalid pipeline")

// Pipeline is a parsed pipeline description.
type Pipeline struct {
	Name    string      `yaml:"name"`
	Workers int         `yaml:"workers"` // 0 = one per CPU, 1 = sequential
	Inputs  []InputSpec `yaml:"inputs"`
	Layers  []LayerSpec `yaml:"layers"`
}

// InputSpec describes a network input tensor. Values, when present, must
// hold exactly the shape's element count; otherwise Fill initializes it.
type InputSpec struct {
	Name   string             `yaml:"name"`
	Shape  []int              `yaml:"shape"`
	Fill   layer.FillerConfig `yaml:"fill"`
	Values []float32          `yaml:"values"`
}

// LayerSpec describes one layer and its wiring.
type LayerSpec struct {
	Name    string     `yaml:"name"`
	Type    layer.Kind `yaml:"type"`
	Bottoms []string   `yaml:"bottoms"`
	Tops    []string   `yaml:"tops"`
	Params  yaml.Node  `yaml:"params"`
}

// Load reads and validates the pipeline at path.
func Load(path string) (*Pipeline, error) {
	//nolint:gosec // G304: the path is the caller's pipeline file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a pipeline. Unknown top-level fields are
// rejected.
func Parse(data []byte) (*Pipeline, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Pipeline
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks names and shapes. Layer configurations are checked when
// the layers are built and set up.
func (p *Pipeline) Validate() error {
	if p.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalid, p.Workers)
	}
	seen := map[string]bool{}
	for i, in := range p.Inputs {
		if in.Name == "" {
			return fmt.Errorf("%w: input %d has no name", ErrInvalid, i)
		}
		if seen[in.Name] {
			return fmt.Errorf("%w: duplicate tensor name %q", ErrInvalid, in.Name)
		}
		seen[in.Name] = true
		if _, err := in.TensorShape(); err != nil {
			return err
		}
	}

	layers := map[string]bool{}
	for i, l := range p.Layers {
		if l.Name == "" {
			return fmt.Errorf("%w: layer %d has no name", ErrInvalid, i)
		}
		if layers[l.Name] {
			return fmt.Errorf("%w: duplicate layer name %q", ErrInvalid, l.Name)
		}
		layers[l.Name] = true
	}
	return nil
}

// TensorShape returns the input's shape.
func (in InputSpec) TensorShape() (tensor.Shape, error) {
	if len(in.Shape) != tensor.NumAxes {
		return tensor.Shape{}, fmt.Errorf("%w: input %q: shape needs %d dimensions, got %d",
			ErrInvalid, in.Name, tensor.NumAxes, len(in.Shape))
	}
	s := tensor.NewShape(in.Shape[0], in.Shape[1], in.Shape[2], in.Shape[3])
	if err := s.Validate(); err != nil {
		return tensor.Shape{}, fmt.Errorf("%w: input %q: %w", ErrInvalid, in.Name, err)
	}
	if in.Values != nil && len(in.Values) != s.NumElements() {
		return tensor.Shape{}, fmt.Errorf("%w: input %q: %d values for shape %v",
			ErrInvalid, in.Name, len(in.Values), s)
	}
	return s, nil
}

// NewTensor allocates and initializes the input tensor.
func (in InputSpec) NewTensor() (*tensor.Tensor, error) {
	s, err := in.TensorShape()
	if err != nil {
		return nil, err
	}
	if in.Values != nil {
		return tensor.FromSlice(in.Values, s)
	}
	t := tensor.NewFromShape(s)
	if err := layer.Fill(in.Fill, t); err != nil {
		return nil, fmt.Errorf("input %q: %w", in.Name, err)
	}
	return t, nil
}

// Build creates the layer with its params decoded over the defaults.
func (s *LayerSpec) Build() (layer.Layer, error) {
	cfg, err := layer.NewConfig(s.Type)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", s.Name, err)
	}
	if !s.Params.IsZero() {
		if err := decodeStrict(&s.Params, cfg); err != nil {
			return nil, fmt.Errorf("layer %q params: %w", s.Name, err)
		}
	}
	return layer.New(s.Type, s.Name, cfg)
}

// decodeStrict decodes node into out, rejecting keys out does not declare.
// yaml.Node.Decode has no KnownFields switch, so the node is re-encoded and
// read back through a strict decoder.
func decodeStrict(node *yaml.Node, out any) error {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}
