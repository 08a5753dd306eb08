package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/born-ml/strata/internal/config"
	"github.com/born-ml/strata/internal/net"
)

type runOptions struct {
	file     string
	iters    int
	workers  int
	backward bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build a pipeline and run forward passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("workers") && opts.workers < 1 {
				return fmt.Errorf("--workers must be >= 1, got %d", opts.workers)
			}
			return runPipeline(opts, cmd.Flags().Changed("workers"))
		},
	}

	opts.addFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (o *runOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.file, "file", "f", "", "pipeline YAML file (required)")
	fs.IntVarP(&o.iters, "iters", "n", 1, "number of forward passes")
	fs.IntVar(&o.workers, "workers", 0, "worker goroutines per layer (overrides the pipeline)")
	fs.BoolVar(&o.backward, "backward", false, "run a backward pass with unit output gradients after each forward")
}

func runPipeline(opts *runOptions, overrideWorkers bool) (err error) {
	p, err := config.Load(opts.file)
	if err != nil {
		return err
	}
	if overrideWorkers {
		p.Workers = opts.workers
	}

	logger := slog.Default()
	n, err := net.FromPipeline(p, net.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, n.Close())
	}()
	if err := n.Init(); err != nil {
		return err
	}

	for iter := range opts.iters {
		if err := n.Forward(); err != nil {
			return fmt.Errorf("iteration %d: %w", iter, err)
		}
		for _, name := range n.Outputs() {
			logger.Info("output", "iter", iter, "tensor", name, "value", n.Blob(name))
		}
		if !opts.backward {
			continue
		}

		n.ClearParamDiffs()
		for _, name := range n.Outputs() {
			diff := n.Blob(name).Diff()
			for i := range diff {
				diff[i] = 1
			}
		}
		if err := n.Backward(); err != nil {
			return fmt.Errorf("iteration %d: %w", iter, err)
		}
		for i, param := range n.Params() {
			logger.Info("parameter gradient", "iter", iter, "param", i, "asum", param.AsumDiff())
		}
	}
	return nil
}
