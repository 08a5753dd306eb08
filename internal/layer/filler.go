package layer

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/born-ml/strata/internal/tensor"
)

// FillerConfig describes how a parameter tensor is initialized.
type FillerConfig struct {
	Type  string  `yaml:"type"` // constant, uniform, gaussian or xavier
	Value float32 `yaml:"value"`
	Min   float32 `yaml:"min"`
	Max   float32 `yaml:"max"`
	Mean  float32 `yaml:"mean"`
	Std   float32 `yaml:"std"`
	Seed  uint64  `yaml:"seed"`
}

// Fill initializes t's data according to cfg, taking the Xavier fan-in
// from t's layout (count/num).
func Fill(cfg FillerConfig, t *tensor.Tensor) error {
	fanIn := 1
	if t.Num() > 0 {
		fanIn = max(t.NumElements()/t.Num(), 1)
	}
	return FillFanIn(cfg, t, fanIn)
}

// FillFanIn is Fill with an explicit fan-in, for parameters whose layout
// does not put the input width last.
//
// Xavier draws from U(-sqrt(3/fanIn), sqrt(3/fanIn)).
func FillFanIn(cfg FillerConfig, t *tensor.Tensor, fanIn int) error {
	//nolint:gosec // Weight initialization is not security-critical.
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	data := t.Data()

	switch cfg.Type {
	case "", "constant":
		for i := range data {
			data[i] = cfg.Value
		}
	case "uniform":
		if cfg.Max < cfg.Min {
			return fmt.Errorf("%w: uniform filler max %g < min %g", ErrConfig, cfg.Max, cfg.Min)
		}
		for i := range data {
			data[i] = cfg.Min + rng.Float32()*(cfg.Max-cfg.Min)
		}
	case "gaussian":
		for i := range data {
			data[i] = cfg.Mean + float32(rng.NormFloat64())*cfg.Std
		}
	case "xavier":
		bound := float32(math.Sqrt(3.0 / float64(max(fanIn, 1))))
		for i := range data {
			data[i] = (rng.Float32()*2 - 1) * bound
		}
	default:
		return fmt.Errorf("%w: unknown filler type %q", ErrConfig, cfg.Type)
	}
	return nil
}
