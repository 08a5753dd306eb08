package layer

import (
	"fmt"
	"math"
	"strings"

	"github.com/born-ml/strata/internal/backend/cpu"
	"github.com/born-ml/strata/internal/tensor"
)

// FilterMode is the pass predicate of a Filter layer.
type FilterMode int

// Supported pass predicates. "argmax" is the index of the largest value in
// an item's condition slice (first index on ties).
const (
	// FilterArgMaxEquals passes items whose condition argmax equals Index.
	FilterArgMaxEquals FilterMode = iota
	// FilterArgMaxDiffers passes items whose condition argmax differs from Index.
	FilterArgMaxDiffers
	// FilterLabelEquals passes items whose condition argmax equals their label.
	FilterLabelEquals
	// FilterThresholdAbove passes items whose condition value at Index exceeds Threshold.
	FilterThresholdAbove
)

var filterModeNames = map[FilterMode]string{
	FilterArgMaxEquals:   "argmax_equals",
	FilterArgMaxDiffers:  "argmax_differs",
	FilterLabelEquals:    "label_equals",
	FilterThresholdAbove: "threshold_above",
}

// String returns the mode name.
func (m FilterMode) String() string {
	if s, ok := filterModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("FilterMode(%d)", int(m))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *FilterMode) UnmarshalText(text []byte) error {
	for mode, name := range filterModeNames {
		if strings.EqualFold(name, string(text)) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("%w: unknown filter mode %q", ErrConfig, text)
}

// FilterConfig configures a Filter layer.
type FilterConfig struct {
	Mode      FilterMode `yaml:"mode"`
	Index     int        `yaml:"index"`
	Threshold float32    `yaml:"threshold"`
}

// Filter forwards the subset of batch items that pass a predicate.
//
// Bottoms are (condition, payload, labels), all with the same batch size N.
// Tops are (passed labels, passed payload), both with batch size S <= N.
// Passed items keep their original relative order.
//
// The predicate is evaluated during Reshape, so it sees the condition data
// produced by the upstream Forward of the same batch. The first Reshape runs
// at setup, before any condition exists: it passes every item and sizes
// both tops to N so downstream layers set up against the full batch.
// Backward scatters the
// payload gradient back to the passed positions and zeroes blocked ones;
// the condition and labels bottoms never receive a gradient.
type Filter struct {
	base
	cfg    FilterConfig
	passed []int
	shaped bool // A Reshape has run since LayerSetUp
}

// NewFilter creates a Filter layer.
func NewFilter(name string, cfg FilterConfig) *Filter {
	return &Filter{base: newBase(name), cfg: cfg}
}

// Kind returns KindFilter.
func (l *Filter) Kind() Kind { return KindFilter }

// Multiplicity returns three bottoms, two tops.
func (l *Filter) Multiplicity() Multiplicity { return Exactly(3, 2) }

// LayerSetUp validates the mode and index.
func (l *Filter) LayerSetUp(_, _ []*tensor.Tensor) error {
	if _, ok := filterModeNames[l.cfg.Mode]; !ok {
		return configError(l, "unknown mode %v", l.cfg.Mode)
	}
	if l.cfg.Index < 0 {
		return configError(l, "index must be >= 0, got %d", l.cfg.Index)
	}
	l.shaped = false
	return nil
}

// Reshape evaluates the predicate for every item and sizes both tops to the
// passed count.
func (l *Filter) Reshape(bottom, top []*tensor.Tensor) error {
	cond, payload, labels := bottom[0], bottom[1], bottom[2]
	num := cond.Num()
	if payload.Num() != num || labels.Num() != num {
		return configError(l, "batch sizes differ: condition %d, payload %d, labels %d",
			num, payload.Num(), labels.Num())
	}
	dim := cond.Count(1, tensor.NumAxes)
	if l.cfg.Mode != FilterLabelEquals && l.cfg.Index >= dim {
		return configError(l, "index %d out of range for condition size %d", l.cfg.Index, dim)
	}
	labelDim := labels.Count(1, tensor.NumAxes)
	if l.cfg.Mode == FilterLabelEquals && labelDim < 1 {
		return configError(l, "label_equals needs at least one label value per item")
	}

	l.passed = l.passed[:0]
	if !l.shaped {
		l.shaped = true
		for n := 0; n < num; n++ {
			l.passed = append(l.passed, n)
		}
	} else {
		c, lab := cond.Data(), labels.Data()
		for n := 0; n < num; n++ {
			if l.pass(c[n*dim:(n+1)*dim], lab[n*labelDim:(n+1)*labelDim]) {
				l.passed = append(l.passed, n)
			}
		}
	}

	s := len(l.passed)
	top[0].Reshape(labels.Shape().With(tensor.AxisNum, s))
	top[1].Reshape(payload.Shape().With(tensor.AxisNum, s))
	return nil
}

func (l *Filter) pass(cond, label []float32) bool {
	switch l.cfg.Mode {
	case FilterArgMaxEquals:
		_, idx := cpu.Max(cond)
		return idx == l.cfg.Index
	case FilterArgMaxDiffers:
		_, idx := cpu.Max(cond)
		return idx != l.cfg.Index
	case FilterLabelEquals:
		_, idx := cpu.Max(cond)
		return idx == int(math.Round(float64(label[0])))
	case FilterThresholdAbove:
		return cond[l.cfg.Index] > l.cfg.Threshold
	}
	return false
}

// Forward copies the passed items' labels and payload.
func (l *Filter) Forward(bottom, top []*tensor.Tensor) {
	gather(bottom[2].Data(), top[0].Data(), bottom[2].Count(1, tensor.NumAxes), l.passed)
	gather(bottom[1].Data(), top[1].Data(), bottom[1].Count(1, tensor.NumAxes), l.passed)
}

// Backward scatters the passed payload gradient back to its original
// positions; blocked positions are zeroed.
func (l *Filter) Backward(top []*tensor.Tensor, propagateDown []bool, bottom []*tensor.Tensor) {
	if !propagateDown[1] {
		return
	}
	dx := bottom[1].Diff()
	clear(dx)
	dim := bottom[1].Count(1, tensor.NumAxes)
	dy := top[1].Diff()
	for s, n := range l.passed {
		copy(dx[n*dim:(n+1)*dim], dy[s*dim:(s+1)*dim])
	}
}

// Passed returns the original batch positions selected by the last Reshape.
func (l *Filter) Passed() []int {
	return l.passed
}

func gather(src, dst []float32, dim int, idx []int) {
	for s, n := range idx {
		copy(dst[s*dim:(s+1)*dim], src[n*dim:(n+1)*dim])
	}
}
