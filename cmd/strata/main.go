// Command strata runs layer pipelines described in YAML.
//
// Usage:
//
//	strata run -f pipeline.yaml --iters 3
//	strata layers
//	strata info
//	strata version
package main

import (
	"os"
)

const version = "v0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
