package layer

import (
	"fmt"
	"strings"
)

// Kind identifies a layer variant.
type Kind int

// Supported layer variants.
const (
	KindArgMax Kind = iota
	KindConcat
	KindEltwise
	KindFilter
	KindFlatten
	KindInnerProduct
	KindMVN
	KindSilence
	KindSoftmax
	KindSplit
	KindSlice
	KindIndexedData
)

var kindNames = map[Kind]string{
	KindArgMax:       "ArgMax",
	KindConcat:       "Concat",
	KindEltwise:      "Eltwise",
	KindFilter:       "Filter",
	KindFlatten:      "Flatten",
	KindInnerProduct: "InnerProduct",
	KindMVN:          "MVN",
	KindSilence:      "Silence",
	KindSoftmax:      "Softmax",
	KindSplit:        "Split",
	KindSlice:        "Slice",
	KindIndexedData:  "IndexedData",
}

// String returns the variant tag.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind resolves a variant tag, ignoring case.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown layer type %q", ErrConfig, s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
