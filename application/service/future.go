package service

import (
	"context"
	"sync"

	"github.com/cuboulder-se-research/em-assist/domain/extraction"
)

// Result is the outcome of a completed orchestration.
type Result struct {
	candidates []extraction.Candidate
	advisory   error
}

// NewResult creates a Result.
func NewResult(candidates []extraction.Candidate, advisory error) Result {
	return Result{candidates: candidates, advisory: advisory}
}

// Candidates returns the resolved candidates.
func (r Result) Candidates() []extraction.Candidate { return r.candidates }

// Advisory returns ErrNoSuggestions for a degraded success, otherwise nil.
func (r Result) Advisory() error { return r.advisory }

// Degraded reports whether the request completed without suggestions.
func (r Result) Degraded() bool { return r.advisory != nil }

// Future delivers the result of one orchestration exactly once.
type Future struct {
	id     string
	done   chan struct{}
	once   sync.Once
	result Result
	err    error
}

func newFuture(id string) *Future {
	return &Future{id: id, done: make(chan struct{})}
}

// ID returns the orchestration ID.
func (f *Future) ID() string { return f.id }

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the result is available or ctx is done.
// Giving up on a future does not cancel the orchestration.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return Result{}, cancelled("", ctx.Err())
	}
}

// complete stores the outcome. Later calls are ignored.
func (f *Future) complete(result Result, err error) bool {
	completed := false
	f.once.Do(func() {
		f.result = result
		f.err = err
		completed = true
		close(f.done)
	})
	return completed
}

// Rejected returns a future that has already failed as cancelled, for
// requests that arrive while nothing can run them.
func Rejected(path string, cause error) *Future {
	f := newFuture("")
	f.complete(Result{}, cancelled(path, cause))
	return f
}
