package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrPoolStopped indicates work was submitted after the pool stopped.
var ErrPoolStopped = errors.New("worker pool stopped")

// Task is a unit of work run by the Pool.
// ctx is cancelled when the submitter's context ends or the pool stops.
type Task func(ctx context.Context)

// Pool runs tasks on goroutines with bounded concurrency.
type Pool struct {
	sem    *semaphore.Weighted
	size   int
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

// NewPool creates a Pool running at most size tasks at once.
func NewPool(size int, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    semaphore.NewWeighted(int64(size)),
		size:   size,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Size returns the concurrency limit.
func (p *Pool) Size() int { return p.size }

// Submit schedules task and returns without waiting for a free slot.
// A submitted task is always invoked exactly once, possibly with a context
// that is already done.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolStopped
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(p.ctx, cancel)
		defer stop()

		if err := p.sem.Acquire(runCtx, 1); err != nil {
			p.executeWithRecovery(runCtx, task)
			return
		}
		defer p.sem.Release(1)

		p.executeWithRecovery(runCtx, task)
	}()
	return nil
}

// Stop cancels running tasks and waits for them to return. Safe to call repeatedly.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug("worker pool stopped")
}

func (p *Pool) executeWithRecovery(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", slog.String("error", fmt.Sprint(r)))
		}
	}()
	task(ctx)
}
