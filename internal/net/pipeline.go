package net

import (
	"fmt"

	"github.com/born-ml/strata/internal/config"
	"github.com/born-ml/strata/internal/parallel"
)

// FromPipeline builds an uninitialized network from a pipeline description.
// The pipeline's worker count overrides any WithParallelism option.
func FromPipeline(p *config.Pipeline, opts ...Option) (*Net, error) {
	if p.Workers > 0 {
		cfg := parallel.DefaultConfig()
		cfg.NumWorkers = p.Workers
		cfg.Enabled = p.Workers > 1
		opts = append(opts, WithParallelism(cfg))
	}
	n := New(p.Name, opts...)

	for _, in := range p.Inputs {
		t, err := in.NewTensor()
		if err != nil {
			return nil, err
		}
		if err := n.AddInput(in.Name, t); err != nil {
			return nil, err
		}
	}
	for i := range p.Layers {
		spec := &p.Layers[i]
		l, err := spec.Build()
		if err != nil {
			return nil, err
		}
		if err := n.Add(l, spec.Bottoms, spec.Tops); err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
	}
	return n, nil
}
