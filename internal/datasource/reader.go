package datasource

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrIO              = errors.New("data source I/O error")
	ErrFormat          = errors.New("malformed record")
	ErrIndexOutOfRange = errors.New("record index out of range")
	ErrInvalidCache    = errors.New("reader cannot be cached")
)

// Numeric is the set of element types a record can hold.
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Reader reads indexed records.
//
// Read copies up to len(dst) values of record index into dst and returns the
// record's full length, which may be larger or smaller than len(dst). A nil
// dst is valid and only reports the length. Implementations must be safe for
// concurrent use.
type Reader[T Numeric] interface {
	Read(index int, dst []T) (int, error)
}

// Sized is implemented by readers that know their record count.
type Sized interface {
	Len() int
}

// Len returns r's record count, or -1 if r is not Sized.
func Len[T Numeric](r Reader[T]) int {
	if s, ok := r.(Sized); ok {
		return s.Len()
	}
	return -1
}

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, n)
	}
	return nil
}
