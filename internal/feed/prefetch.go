package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/strata/internal/tensor"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("prefetcher closed")

// Batch is one buffer of a Prefetcher.
type Batch struct {
	Data    *tensor.Tensor
	Indices []int // Source index of each item
}

// FillFunc loads the next batch into b. It runs on the loader goroutine.
type FillFunc func(ctx context.Context, b *Batch) error

// Prefetcher double-buffers batches: while the caller consumes the front
// buffer, a background goroutine fills the back buffer. Next swaps them.
//
// The batch returned by Next stays valid until the following call to Next.
type Prefetcher struct {
	fill   FillFunc
	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group

	mu     sync.Mutex
	front  *Batch
	back   *Batch
	done   chan error
	err    error
	closed bool
}

// NewPrefetcher allocates two buffers of the given shape and starts loading
// the first batch.
func NewPrefetcher(ctx context.Context, shape tensor.Shape, fill FillFunc) *Prefetcher {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	p := &Prefetcher{
		fill:   fill,
		ctx:    gctx,
		cancel: cancel,
		g:      g,
		front:  &Batch{Data: tensor.NewFromShape(shape), Indices: make([]int, shape[tensor.AxisNum])},
		back:   &Batch{Data: tensor.NewFromShape(shape), Indices: make([]int, shape[tensor.AxisNum])},
	}
	p.load()
	return p
}

// load starts filling the back buffer. Callers hold mu, except NewPrefetcher.
func (p *Prefetcher) load() {
	done := make(chan error, 1)
	p.done = done
	back := p.back
	p.g.Go(func() error {
		err := p.fill(p.ctx, back)
		done <- err
		return err
	})
}

// Next waits for the batch being loaded, makes it the front buffer and starts
// loading the following batch into the previous front buffer.
func (p *Prefetcher) Next(ctx context.Context) (*Batch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if p.err != nil {
		return nil, p.err
	}
	select {
	case err := <-p.done:
		if err != nil {
			p.err = fmt.Errorf("prefetch: %w", err)
			return nil, p.err
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.front, p.back = p.back, p.front
	p.load()
	return p.front, nil
}

// Close stops the loader and waits for it to exit.
func (p *Prefetcher) Close() error {
	p.cancel()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	// A fill error already returned by Next is not reported again.
	if err := p.g.Wait(); err != nil && p.err == nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
