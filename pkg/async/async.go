package async

import (
	"context"
	"sync"
	"time"
)

// Future is the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the computation completes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// Async runs fn in a new goroutine. A context that is already done
// completes the future with ctx.Err() without calling fn.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// WaitAll awaits every future in order and stops at the first error.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	for i, future := range futures {
		result, err := future.Await()
		results[i] = result
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Group runs background tasks detached from the caller's cancellation and
// lets shutdown wait for the ones still in flight.
type Group struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

// NewGroup returns a Group whose tasks are bounded by timeout.
// A non-positive timeout leaves tasks unbounded.
func NewGroup(timeout time.Duration) *Group {
	return &Group{timeout: timeout}
}

// Go starts fn with a context that keeps ctx's values but not its deadline
// or cancellation.
func (g *Group) Go(ctx context.Context, fn func(context.Context) error) *Future[struct{}] {
	g.wg.Add(1)
	ctx = context.WithoutCancel(ctx)

	return Async(ctx, fn, func(ctx context.Context, fn func(context.Context) error) (struct{}, error) {
		defer g.wg.Done()
		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return struct{}{}, fn(ctx)
	})
}

// Wait blocks until every started task has returned or ctx is done.
func (g *Group) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
