package datasource

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// CachedReader holds every record of a wrapped reader in one contiguous slab.
//
// All records must have the same length and indices 0..n-1 must all exist.
// The cache is filled once at construction and is read-only afterwards, so
// concurrent reads need no locking.
type CachedReader[T Numeric] struct {
	slab   []T
	recLen int
	n      int
}

// NewCachedReader reads records 0..n-1 of r into memory. A negative n means
// every record of r, which then must implement Sized.
func NewCachedReader[T Numeric](r Reader[T], n int) (*CachedReader[T], error) {
	if n < 0 {
		if n = Len(r); n < 0 {
			return nil, fmt.Errorf("%w: record count unknown and reader is not sized", ErrInvalidCache)
		}
	}
	c := &CachedReader[T]{n: n}
	if n == 0 {
		return c, nil
	}

	recLen, err := r.Read(0, nil)
	if err != nil {
		return nil, cacheReadError(0, err)
	}
	c.recLen = recLen
	c.slab = make([]T, n*recLen)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range n {
		g.Go(func() error {
			got, err := r.Read(i, c.slab[i*recLen:(i+1)*recLen])
			if err != nil {
				return cacheReadError(i, err)
			}
			if got != recLen {
				return fmt.Errorf("%w: record %d has length %d, record 0 has %d", ErrInvalidCache, i, got, recLen)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}

func cacheReadError(index int, err error) error {
	if errors.Is(err, ErrIndexOutOfRange) {
		return fmt.Errorf("%w: missing record %d: %w", ErrInvalidCache, index, err)
	}
	return fmt.Errorf("caching record %d: %w", index, err)
}

// Read copies record index from the cache into dst.
func (c *CachedReader[T]) Read(index int, dst []T) (int, error) {
	if err := checkIndex(index, c.n); err != nil {
		return 0, err
	}
	copy(dst, c.slab[index*c.recLen:(index+1)*c.recLen])
	return c.recLen, nil
}

// Len returns the number of cached records.
func (c *CachedReader[T]) Len() int {
	return c.n
}

// RecordLen returns the uniform record length.
func (c *CachedReader[T]) RecordLen() int {
	return c.recLen
}
