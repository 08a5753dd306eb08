package layer

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"

	"github.com/born-ml/strata/internal/backend/cpu"
	"github.com/born-ml/strata/internal/tensor"
)

// EltwiseOp selects the elementwise operator.
type EltwiseOp int

// Supported elementwise operators. The zero value is SUM, so a zero
// EltwiseConfig matches DefaultEltwiseConfig.
const (
	EltwiseSum EltwiseOp = iota
	EltwiseProd
	EltwiseMax
)

// String returns the operator name.
func (op EltwiseOp) String() string {
	switch op {
	case EltwiseProd:
		return "PROD"
	case EltwiseSum:
		return "SUM"
	case EltwiseMax:
		return "MAX"
	default:
		return fmt.Sprintf("EltwiseOp(%d)", int(op))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *EltwiseOp) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "PROD":
		*op = EltwiseProd
	case "SUM":
		*op = EltwiseSum
	case "MAX":
		*op = EltwiseMax
	default:
		return fmt.Errorf("%w: unknown eltwise operation %q", ErrConfig, text)
	}
	return nil
}

// nearZero is the magnitude below which stable PROD recomputes the product
// of the other inputs instead of dividing by the input.
const nearZero = 1e-6

// EltwiseConfig configures an Eltwise layer.
type EltwiseConfig struct {
	Op             EltwiseOp `yaml:"operation"`
	Coeffs         []float32 `yaml:"coeff"`            // SUM only; one per bottom, default all 1
	StableProdGrad bool      `yaml:"stable_prod_grad"` // PROD only
}

// DefaultEltwiseConfig sums its inputs.
func DefaultEltwiseConfig() EltwiseConfig {
	return EltwiseConfig{Op: EltwiseSum}
}

// Eltwise combines two or more identically shaped bottoms elementwise.
//
//   - SUM:  top = Σ coeff_i·x_i, dx_i = coeff_i·dy
//   - PROD: top = Π x_i, dx_i = dy·Π_{j≠i} x_j
//   - MAX:  top = max_i x_i, dy is routed to the winning input only
//
// For PROD the default backward divides the product by x_i. With
// StableProdGrad, positions where |x_i| < 1e-6 recompute Π_{j≠i} x_j
// directly so a zero input never yields NaN or Inf.
//
// For MAX the index of the winning input is recorded per element; the first
// input wins ties.
type Eltwise struct {
	base
	cfg    EltwiseConfig
	coeffs []float32
	maxIdx []int32
}

// NewEltwise creates an Eltwise layer.
func NewEltwise(name string, cfg EltwiseConfig) *Eltwise {
	return &Eltwise{base: newBase(name), cfg: cfg}
}

// Kind returns KindEltwise.
func (l *Eltwise) Kind() Kind { return KindEltwise }

// Multiplicity returns at least two bottoms, one top.
func (l *Eltwise) Multiplicity() Multiplicity {
	return Multiplicity{MinBottoms: 2, MaxBottoms: Unconstrained, MinTops: 1, MaxTops: 1}
}

// LayerSetUp validates the operator and the coefficients.
func (l *Eltwise) LayerSetUp(bottom, _ []*tensor.Tensor) error {
	switch l.cfg.Op {
	case EltwiseProd, EltwiseSum, EltwiseMax:
	default:
		return configError(l, "unknown operation %v", l.cfg.Op)
	}
	if len(l.cfg.Coeffs) > 0 {
		if l.cfg.Op != EltwiseSum {
			return configError(l, "coefficients are only supported by SUM, not %v", l.cfg.Op)
		}
		if len(l.cfg.Coeffs) != len(bottom) {
			return configError(l, "%d coefficients for %d bottoms", len(l.cfg.Coeffs), len(bottom))
		}
	}
	l.coeffs = make([]float32, len(bottom))
	for i := range l.coeffs {
		l.coeffs[i] = 1
		if len(l.cfg.Coeffs) > 0 {
			l.coeffs[i] = l.cfg.Coeffs[i]
		}
	}
	return nil
}

// Reshape checks every bottom matches bottom 0 and sizes the top.
func (l *Eltwise) Reshape(bottom, top []*tensor.Tensor) error {
	shape := bottom[0].Shape()
	for i, b := range bottom[1:] {
		if b.Shape() != shape {
			return configError(l, "bottom %d shape %v does not match bottom 0 shape %v", i+1, b.Shape(), shape)
		}
	}
	if len(l.coeffs) != len(bottom) {
		return configError(l, "bottom count changed from %d to %d after setup", len(l.coeffs), len(bottom))
	}
	top[0].Reshape(shape)
	if l.cfg.Op == EltwiseMax {
		if n := shape.NumElements(); cap(l.maxIdx) >= n {
			l.maxIdx = l.maxIdx[:n]
		} else {
			l.maxIdx = make([]int32, n)
		}
	}
	return nil
}

// Forward combines the bottoms into the top.
func (l *Eltwise) Forward(bottom, top []*tensor.Tensor) {
	out := top[0].Data()
	switch l.cfg.Op {
	case EltwiseProd:
		cpu.Mul(bottom[0].Data(), bottom[1].Data(), out)
		for _, b := range bottom[2:] {
			cpu.Mul(out, b.Data(), out)
		}
	case EltwiseSum:
		clear(out)
		for i, b := range bottom {
			cpu.Axpy(l.coeffs[i], b.Data(), out)
		}
	case EltwiseMax:
		a, b := bottom[0].Data(), bottom[1].Data()
		for j := range out {
			if a[j] >= b[j] {
				out[j], l.maxIdx[j] = a[j], 0
			} else {
				out[j], l.maxIdx[j] = b[j], 1
			}
		}
		for i := 2; i < len(bottom); i++ {
			x := bottom[i].Data()
			for j := range out {
				if x[j] > out[j] {
					out[j], l.maxIdx[j] = x[j], int32(i)
				}
			}
		}
	}
}

// Backward computes each bottom's gradient independently.
func (l *Eltwise) Backward(top []*tensor.Tensor, propagateDown []bool, bottom []*tensor.Tensor) {
	dy := top[0].Diff()
	y := top[0].Data()
	for i, b := range bottom {
		if !propagateDown[i] {
			continue
		}
		dx := b.Diff()
		switch l.cfg.Op {
		case EltwiseProd:
			if l.cfg.StableProdGrad {
				l.stableProdGrad(bottom, i, y, dx)
			} else {
				cpu.Div(y, b.Data(), dx)
			}
			cpu.Mul(dx, dy, dx)
		case EltwiseSum:
			if l.coeffs[i] == 1 {
				copy(dx, dy)
			} else {
				cpu.ScaleTo(l.coeffs[i], dy, dx)
			}
		case EltwiseMax:
			for j := range dx {
				if l.maxIdx[j] == int32(i) {
					dx[j] = dy[j]
				} else {
					dx[j] = 0
				}
			}
		}
	}
}

// stableProdGrad writes Π_{j≠i} x_j into dx. Where x_i is safely away from
// zero the forward product y is divided by x_i; elsewhere the product of the
// other inputs is recomputed.
func (l *Eltwise) stableProdGrad(bottom []*tensor.Tensor, i int, y, dx []float32) {
	xi := bottom[i].Data()
	for k := range dx {
		if math32.Abs(xi[k]) >= nearZero {
			dx[k] = y[k] / xi[k]
			continue
		}
		prod := float32(1)
		for j, b := range bottom {
			if j != i {
				prod *= b.Data()[k]
			}
		}
		dx[k] = prod
	}
}

// MaxIndices returns the winning input per element from the last MAX Forward.
func (l *Eltwise) MaxIndices() []int32 {
	return l.maxIdx
}
