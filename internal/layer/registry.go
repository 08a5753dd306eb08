package layer

import (
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// entry builds one layer variant from its typed configuration.
type entry struct {
	newConfig func() any
	build     func(name string, cfg any) (Layer, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[Kind]entry{}
)

func init() {
	Register(KindArgMax, DefaultArgMaxConfig, func(name string, cfg ArgMaxConfig) Layer {
		return NewArgMax(name, cfg)
	})
	Register(KindConcat, DefaultConcatConfig, func(name string, cfg ConcatConfig) Layer {
		return NewConcat(name, cfg)
	})
	Register(KindEltwise, DefaultEltwiseConfig, func(name string, cfg EltwiseConfig) Layer {
		return NewEltwise(name, cfg)
	})
	Register(KindFilter, func() FilterConfig { return FilterConfig{} }, func(name string, cfg FilterConfig) Layer {
		return NewFilter(name, cfg)
	})
	Register(KindFlatten, noConfig, func(name string, _ struct{}) Layer {
		return NewFlatten(name)
	})
	Register(KindInnerProduct, DefaultInnerProductConfig, func(name string, cfg InnerProductConfig) Layer {
		return NewInnerProduct(name, cfg)
	})
	Register(KindMVN, DefaultMVNConfig, func(name string, cfg MVNConfig) Layer {
		return NewMVN(name, cfg)
	})
	Register(KindSilence, noConfig, func(name string, _ struct{}) Layer {
		return NewSilence(name)
	})
	Register(KindSoftmax, DefaultSoftmaxConfig, func(name string, cfg SoftmaxConfig) Layer {
		return NewSoftmax(name, cfg)
	})
	Register(KindSplit, noConfig, func(name string, _ struct{}) Layer {
		return NewSplit(name)
	})
	Register(KindSlice, DefaultSliceConfig, func(name string, cfg SliceConfig) Layer {
		return NewSlice(name, cfg)
	})
}

func noConfig() struct{} { return struct{}{} }

// Register adds a layer variant. defaults returns the configuration used
// when New receives nil and the value NewConfig hands to decoders.
// Registering a kind twice replaces the earlier entry.
func Register[C any](kind Kind, defaults func() C, build func(name string, cfg C) Layer) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[kind] = entry{
		newConfig: func() any {
			c := defaults()
			return &c
		},
		build: func(name string, cfg any) (Layer, error) {
			switch c := cfg.(type) {
			case nil:
				return build(name, defaults()), nil
			case C:
				return build(name, c), nil
			case *C:
				return build(name, *c), nil
			}
			var want C
			return nil, fmt.Errorf("%w: %s layer %q expects %T, got %T", ErrConfig, kind, name, want, cfg)
		},
	}
}

func lookup(kind Kind) (entry, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	e, ok := registry[kind]
	if !ok {
		return entry{}, fmt.Errorf("%w: layer type %s is not registered", ErrConfig, kind)
	}
	return e, nil
}

// NewConfig returns a pointer to kind's default configuration, ready to be
// decoded into and passed to New.
func NewConfig(kind Kind) (any, error) {
	e, err := lookup(kind)
	if err != nil {
		return nil, err
	}
	return e.newConfig(), nil
}

// New creates a layer of the given kind. cfg is the variant's configuration
// struct (by value or pointer), or nil for the defaults.
func New(kind Kind, name string, cfg any) (Layer, error) {
	e, err := lookup(kind)
	if err != nil {
		return nil, err
	}
	return e.build(name, cfg)
}

// Kinds lists the registered variants in tag order.
func Kinds() []Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := lo.Keys(registry)
	slices.Sort(kinds)
	return kinds
}
