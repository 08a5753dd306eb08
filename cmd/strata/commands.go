package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/strata/internal/layer"
	"github.com/born-ml/strata/internal/parallel"

	// Registers the IndexedData layer.
	_ "github.com/born-ml/strata/internal/feed"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "strata %s\n", version)
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show runtime and CPU information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			cfg := parallel.DefaultConfig()
			features := parallel.Features()
			if len(features) == 0 {
				features = []string{"none"}
			}
			fmt.Fprintf(out, "version:   %s\n", version)
			fmt.Fprintf(out, "go:        %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "cpus:      %d\n", runtime.NumCPU())
			fmt.Fprintf(out, "workers:   %d (parallel %t)\n", cfg.NumWorkers, cfg.Enabled)
			fmt.Fprintf(out, "features:  %s\n", strings.Join(features, " "))
		},
	}
}

func newLayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List the available layer types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, k := range layer.Kinds() {
				probe, err := layer.New(k, "", nil)
				if err != nil {
					return err
				}
				m := probe.Multiplicity()
				fmt.Fprintf(out, "%-14s bottoms %-5s tops %s\n", k, bounds(m.MinBottoms, m.MaxBottoms), bounds(m.MinTops, m.MaxTops))
			}
			return nil
		},
	}
}

func bounds(lo, hi int) string {
	switch {
	case lo == hi:
		return fmt.Sprint(lo)
	case hi == layer.Unconstrained:
		return fmt.Sprintf("%d+", lo)
	default:
		return fmt.Sprintf("%d-%d", lo, hi)
	}
}
