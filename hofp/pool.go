// Package hofp exposes a fail-fast higher order function pool, used to contact the nodes of a topology during the per
// node phases of a formation run.
package hofp

import (
	"context"
	"sync"

	"github.com/couchbase/couchdb-cluster-setup/log"
)

// Function is executed by a worker of the pool, it should return promptly once the given context is cancelled.
type Function func(ctx context.Context) error

// Pool executes queued functions using a fixed number of workers.
//
// NOTE: The first error stops the pool, functions which haven't started are dropped and every subsequent call to
// 'Queue'/'Stop' returns that error.
type Pool struct {
	opts   Options
	logger log.WrappedLogger

	tasks   chan Function
	workers sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	stopped sync.Once

	mu  sync.Mutex
	err error
}

// NewPool starts a pool with the configured number of workers.
func NewPool(opts Options) *Pool {
	opts.defaults()

	ctx, cancel := context.WithCancel(opts.Context)

	pool := &Pool{
		opts:   opts,
		logger: log.NewWrappedLogger(opts.Logger),
		tasks:  make(chan Function, opts.Size*opts.BufferMultiplier),
		ctx:    ctx,
		cancel: cancel,
	}

	pool.workers.Add(opts.Size)

	for i := 0; i < opts.Size; i++ {
		go pool.worker()
	}

	return pool
}

// worker runs tasks until the queue is closed or the pool fails.
func (p *Pool) worker() {
	defer p.workers.Done()

	for {
		var (
			fn Function
			ok bool
		)

		select {
		case <-p.ctx.Done():
			return
		case fn, ok = <-p.tasks:
		}

		if !ok {
			return
		}

		err := fn(p.ctx)
		if err == nil {
			continue
		}

		// Only the first error is returned, later ones would otherwise be lost
		if !p.fail(err) {
			p.logger.Errorf("%s Ignoring error after the pool has failed: %v", p.opts.LogPrefix, err)
		}

		return
	}
}

// Queue adds a function to the pool, blocking whilst the buffer is full. The error which stopped the pool is returned
// if it has failed, callers should stop queuing when this happens.
func (p *Pool) Queue(fn Function) error {
	if err := p.failure(); err != nil {
		return err
	}

	select {
	case p.tasks <- fn:
	case <-p.ctx.Done():
	}

	return p.failure()
}

// Stop waits for the queued functions to complete, returning the first error. It's safe to call more than once.
func (p *Pool) Stop() error {
	p.stopped.Do(func() {
		close(p.tasks)
		p.workers.Wait()
		p.cancel()
	})

	return p.failure()
}

func (p *Pool) failure() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.err
}

// fail records the given error and cancels the workers, false is returned if the pool had already failed.
func (p *Pool) fail(err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return false
	}

	p.err = err
	p.cancel()

	return true
}

// ForEach runs the given function for every item using a new pool, items are queued in order. The first error is
// returned, followed by the error of the parent context should it be cancelled.
func ForEach[T any](opts Options, items []T, fn func(ctx context.Context, item T) error) error {
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	opts.Size = min(opts.Size, len(items))

	pool := NewPool(opts)

	for _, item := range items {
		item := item

		err := pool.Queue(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			return fn(ctx, item)
		})
		if err != nil {
			break
		}
	}

	if err := pool.Stop(); err != nil {
		return err
	}

	return opts.Context.Err()
}
