package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_BoundsConcurrency(t *testing.T) {
	pool := NewPool(2, nil)
	defer pool.Stop()

	var current, maxSeen atomic.Int32
	done := make(chan struct{}, 6)

	for range 6 {
		err := pool.Submit(context.Background(), func(ctx context.Context) {
			n := current.Add(1)
			for {
				m := maxSeen.Load()
				if n <= m || maxSeen.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			current.Add(-1)
			done <- struct{}{}
		})
		require.NoError(t, err)
	}

	for range 6 {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("tasks did not finish")
		}
	}
	assert.LessOrEqual(t, maxSeen.Load(), int32(2))
	assert.Equal(t, 2, pool.Size())
}

func TestPool_StopCancelsAndRejects(t *testing.T) {
	pool := NewPool(1, nil)

	started := make(chan struct{})
	var sawCancel atomic.Bool
	err := pool.Submit(context.Background(), func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		sawCancel.Store(true)
	})
	require.NoError(t, err)
	<-started

	pool.Stop()
	assert.True(t, sawCancel.Load())

	err = pool.Submit(context.Background(), func(context.Context) {})
	assert.ErrorIs(t, err, ErrPoolStopped)

	pool.Stop()
}

func TestPool_QueuedTaskStillRunsWhenCancelled(t *testing.T) {
	pool := NewPool(1, nil)
	defer pool.Stop()

	release := make(chan struct{})
	require.NoError(t, pool.Submit(context.Background(), func(context.Context) { <-release }))

	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan error, 1)
	require.NoError(t, pool.Submit(ctx, func(ctx context.Context) { ran <- ctx.Err() }))
	cancel()

	select {
	case err := <-ran:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("queued task was never invoked")
	}
	close(release)
}

func TestPool_RecoversPanics(t *testing.T) {
	pool := NewPool(1, nil)
	defer pool.Stop()

	require.NoError(t, pool.Submit(context.Background(), func(context.Context) { panic("boom") }))

	ok := make(chan struct{})
	require.NoError(t, pool.Submit(context.Background(), func(context.Context) { close(ok) }))

	select {
	case <-ok:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not survive a panicking task")
	}
}
