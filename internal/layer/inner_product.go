package layer

import (
	"fmt"

	"github.com/born-ml/strata/internal/backend/cpu"
	"github.com/born-ml/strata/internal/tensor"
)

// InnerProductConfig configures an InnerProduct layer.
type InnerProductConfig struct {
	NumOutput    int          `yaml:"num_output"`
	BiasTerm     bool         `yaml:"bias_term"`
	Transpose    bool         `yaml:"transpose"` // Store the weight as (K, N) instead of (N, K)
	WeightFiller FillerConfig `yaml:"weight_filler"`
	BiasFiller   FillerConfig `yaml:"bias_filler"`
}

// DefaultInnerProductConfig enables the bias with Xavier weights.
func DefaultInnerProductConfig() InnerProductConfig {
	return InnerProductConfig{
		BiasTerm:     true,
		WeightFiller: FillerConfig{Type: "xavier"},
		BiasFiller:   FillerConfig{Type: "constant"},
	}
}

// InnerProduct is a fully connected layer.
//
// Each sample is flattened to K = C·H·W values and transformed with
// y = W·x + b, computed for all M samples as one matrix multiply:
//
//	top (M, N) = bottom (M, K) @ Wᵀ (K, N) + 1 (M, 1) @ b (1, N)
//
// Backward accumulates into the parameter gradients (the optimizer clears
// them) and overwrites the bottom gradient:
//
//	dW += dyᵀ @ x    db += Σ_m dy[m]    dx = dy @ W
//
// The weight, bias and input gradients are gated independently.
type InnerProduct struct {
	base
	cfg            InnerProductConfig
	k              int
	weight         *tensor.Tensor
	bias           *tensor.Tensor
	biasMultiplier []float32
	paramPropagate [2]bool
}

// NewInnerProduct creates an InnerProduct layer.
func NewInnerProduct(name string, cfg InnerProductConfig) *InnerProduct {
	return &InnerProduct{base: newBase(name), cfg: cfg, paramPropagate: [2]bool{true, true}}
}

// Kind returns KindInnerProduct.
func (l *InnerProduct) Kind() Kind { return KindInnerProduct }

// Multiplicity returns one bottom, one top.
func (l *InnerProduct) Multiplicity() Multiplicity { return Exactly(1, 1) }

// LayerSetUp allocates and fills the weight and bias.
func (l *InnerProduct) LayerSetUp(bottom, _ []*tensor.Tensor) error {
	n := l.cfg.NumOutput
	if n < 1 {
		return configError(l, "num_output must be >= 1, got %d", n)
	}
	l.k = bottom[0].Count(1, tensor.NumAxes)
	if l.k < 1 {
		return configError(l, "input sample size must be >= 1, got %d", l.k)
	}

	if l.cfg.Transpose {
		l.weight = tensor.New(l.k, n, 1, 1)
	} else {
		l.weight = tensor.New(n, l.k, 1, 1)
	}
	if err := FillFanIn(l.cfg.WeightFiller, l.weight, l.k); err != nil {
		return configError(l, "weight filler: %v", err)
	}

	l.bias = nil
	if l.cfg.BiasTerm {
		l.bias = tensor.New(1, n, 1, 1)
		if err := Fill(l.cfg.BiasFiller, l.bias); err != nil {
			return configError(l, "bias filler: %v", err)
		}
	}
	return nil
}

// Reshape checks the input size and sizes the top to (M, N, 1, 1).
func (l *InnerProduct) Reshape(bottom, top []*tensor.Tensor) error {
	if k := bottom[0].Count(1, tensor.NumAxes); k != l.k {
		return configError(l, "input sample size %d incompatible with weight input size %d", k, l.k)
	}
	m := bottom[0].Num()
	top[0].Reshape(tensor.NewShape(m, l.cfg.NumOutput, 1, 1))
	if l.cfg.BiasTerm && len(l.biasMultiplier) != m {
		l.biasMultiplier = make([]float32, m)
		cpu.Set(1, l.biasMultiplier)
	}
	return nil
}

// Forward computes top = bottom @ Wᵀ + b.
func (l *InnerProduct) Forward(bottom, top []*tensor.Tensor) {
	m, n, k := bottom[0].Num(), l.cfg.NumOutput, l.k
	x, y := bottom[0].Data(), top[0].Data()

	cpu.Gemm(false, !l.cfg.Transpose, m, n, k, 1, x, l.weight.Data(), 0, y)
	if l.cfg.BiasTerm {
		cpu.Gemm(false, false, m, n, 1, 1, l.biasMultiplier, l.bias.Data(), 1, y)
	}
}

// Backward accumulates dW and db and writes dx.
func (l *InnerProduct) Backward(top []*tensor.Tensor, propagateDown []bool, bottom []*tensor.Tensor) {
	m, n, k := bottom[0].Num(), l.cfg.NumOutput, l.k
	x, dy := bottom[0].Data(), top[0].Diff()

	if l.paramPropagate[0] {
		if l.cfg.Transpose {
			cpu.Gemm(true, false, k, n, m, 1, x, dy, 1, l.weight.Diff())
		} else {
			cpu.Gemm(true, false, n, k, m, 1, dy, x, 1, l.weight.Diff())
		}
	}
	if l.cfg.BiasTerm && l.paramPropagate[1] {
		cpu.Gemv(true, m, n, 1, dy, l.biasMultiplier, 1, l.bias.Diff())
	}
	if propagateDown[0] {
		cpu.Gemm(false, l.cfg.Transpose, m, k, n, 1, dy, l.weight.Data(), 0, bottom[0].Diff())
	}
}

// Params returns [weight] or [weight, bias].
func (l *InnerProduct) Params() []*tensor.Tensor {
	if l.bias != nil {
		return []*tensor.Tensor{l.weight, l.bias}
	}
	if l.weight == nil {
		return nil
	}
	return []*tensor.Tensor{l.weight}
}

// Weight returns the weight parameter.
func (l *InnerProduct) Weight() *tensor.Tensor {
	return l.weight
}

// Bias returns the bias parameter, or nil without a bias term.
func (l *InnerProduct) Bias() *tensor.Tensor {
	return l.bias
}

// SetParamPropagateDown enables or disables the gradient of parameter i
// (0 = weight, 1 = bias).
func (l *InnerProduct) SetParamPropagateDown(i int, enabled bool) {
	if i < 0 || i >= len(l.paramPropagate) {
		panic(fmt.Sprintf("InnerProduct: parameter index %d out of range", i))
	}
	l.paramPropagate[i] = enabled
}
