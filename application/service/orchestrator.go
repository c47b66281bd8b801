package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cuboulder-se-research/em-assist/domain/extraction"
	domainservice "github.com/cuboulder-se-research/em-assist/domain/service"
	"github.com/cuboulder-se-research/em-assist/domain/suggestion"
)

// DefaultSuggestionTimeout bounds the wait for the suggestion service.
const DefaultSuggestionTimeout = 120 * time.Second

// Orchestrator turns (file, line) requests into extract-function candidates.
type Orchestrator struct {
	workspace domainservice.Workspace
	suggester domainservice.SuggestionService
	parser    *suggestion.Parser
	cache     *CandidateCache
	pool      *Pool
	recorder  Recorder
	timeout   time.Duration
	locks     *pathLocks
	logger    *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithSuggestionTimeout sets the deadline for the suggestion service.
func WithSuggestionTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithSerializePaths allows at most one in-flight orchestration per path.
func WithSerializePaths(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) {
		if enabled {
			o.locks = newPathLocks()
		} else {
			o.locks = nil
		}
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) OrchestratorOption {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	workspace domainservice.Workspace,
	suggester domainservice.SuggestionService,
	cache *CandidateCache,
	pool *Pool,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		workspace: workspace,
		suggester: suggester,
		cache:     cache,
		pool:      pool,
		recorder:  noopRecorder{},
		timeout:   DefaultSuggestionTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.parser = suggestion.NewParser(o.logger)
	return o
}

// Timeout returns the suggestion deadline.
func (o *Orchestrator) Timeout() time.Duration { return o.timeout }

// Cache returns the candidate cache.
func (o *Orchestrator) Cache() *CandidateCache { return o.cache }

// Handle starts an orchestration and returns its future immediately.
func (o *Orchestrator) Handle(ctx context.Context, filePath string, line int) *Future {
	id := uuid.NewString()
	fut := newFuture(id)
	r := &run{
		id:     id,
		path:   filePath,
		line:   line,
		state:  StateStarted,
		logger: o.logger.With(slog.String("orchestration_id", id), slog.String("path", filePath)),
	}

	o.recorder.Started()
	start := time.Now()
	deliver := func(result Result, err error) {
		outcome := OutcomeCompleted
		var oe *Error
		switch {
		case errors.As(err, &oe):
			outcome = string(oe.Kind())
		case err != nil:
			outcome = string(KindInternal)
		case result.Degraded():
			outcome = OutcomeDegraded
		}
		if fut.complete(result, err) {
			o.recorder.Finished(outcome, time.Since(start), result.Candidates())
		}
	}

	err := o.pool.Submit(ctx, func(ctx context.Context) {
		result, err := o.execute(ctx, r)
		deliver(result, err)
	})
	if err != nil {
		deliver(Result{}, cancelled(filePath, err))
	}
	return fut
}

// run tracks one orchestration's state.
type run struct {
	id     string
	path   string
	line   int
	state  State
	logger *slog.Logger
}

func (r *run) advance(ctx context.Context, to State) error {
	if !r.state.canAdvance(to) {
		return fmt.Errorf("illegal transition %s -> %s", r.state, to)
	}
	r.logger.DebugContext(ctx, "orchestration state", slog.String("from", r.state.String()), slog.String("to", to.String()))
	r.state = to
	return nil
}

func (r *run) fail(ctx context.Context, err *Error) *Error {
	_ = r.advance(ctx, StateFailed)
	r.logger.WarnContext(ctx, "orchestration failed", slog.String("kind", string(err.Kind())), slog.String("error", err.Error()))
	return err
}

// located is the snapshot taken inside the document read lock.
type located struct {
	path  string
	fn    extraction.EnclosingFunction
	code  string
	index extraction.LineIndex
}

func (o *Orchestrator) execute(ctx context.Context, r *run) (result Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = r.fail(ctx, internal(r.path, fmt.Errorf("%v", rec)))
			result = Result{}
		}
	}()

	step := func(to State) error {
		if err := ctx.Err(); err != nil {
			return r.fail(ctx, cancelled(r.path, err))
		}
		if err := r.advance(ctx, to); err != nil {
			return r.fail(ctx, internal(r.path, err))
		}
		return nil
	}

	if err := ctx.Err(); err != nil {
		return Result{}, r.fail(ctx, cancelled(r.path, err))
	}

	if err := step(StateLocatingContext); err != nil {
		return Result{}, err
	}
	if !o.workspace.Active() {
		return Result{}, r.fail(ctx, noActiveContext(r.path))
	}

	if err := step(StateLocatingFile); err != nil {
		return Result{}, err
	}
	if o.locks != nil {
		release, err := o.locks.acquire(ctx, filepath.Clean(r.path))
		if err != nil {
			return Result{}, r.fail(ctx, cancelled(r.path, err))
		}
		defer release()
	}
	doc, err := o.workspace.Open(ctx, r.path)
	if err != nil {
		return Result{}, r.fail(ctx, openError(r.path, err))
	}

	if err := step(StateLocatingFunction); err != nil {
		return Result{}, err
	}
	loc, oerr := o.locate(doc, r)
	if oerr != nil {
		return Result{}, r.fail(ctx, oerr)
	}

	if err := step(StateAwaitingSuggestions); err != nil {
		return Result{}, err
	}
	text, oerr := o.awaitSuggestions(ctx, r, loc)
	if oerr != nil {
		return Result{}, r.fail(ctx, oerr)
	}

	if err := step(StateParsing); err != nil {
		return Result{}, err
	}
	raws := o.parser.Parse(text)

	if err := step(StateResolving); err != nil {
		return Result{}, err
	}
	candidates := extraction.ResolveAll(raws, loc.fn, loc.index)

	if err := ctx.Err(); err != nil {
		return Result{}, r.fail(ctx, cancelled(r.path, err))
	}
	o.cache.Put(loc.path, candidates)
	if err := r.advance(ctx, StateCompleted); err != nil {
		return Result{}, r.fail(ctx, internal(r.path, err))
	}

	var advisory error
	if len(raws) == 0 {
		advisory = ErrNoSuggestions
		r.logger.InfoContext(ctx, "no suggestions from LLM")
	}
	r.logger.InfoContext(ctx, "orchestration completed", slog.Int("candidates", len(candidates)))
	return NewResult(candidates, advisory), nil
}

// locate finds the enclosing function under the document read lock.
func (o *Orchestrator) locate(doc domainservice.Document, r *run) (located, *Error) {
	unlock := doc.LockForRead()
	defer unlock()

	text := doc.Text()
	index := extraction.NewLineIndex(text)

	lineStart, err := index.OffsetOfLineStart(r.line)
	if err != nil {
		return located{}, invalidLine(r.path, r.line, err)
	}

	fn, ok := doc.EnclosingFunctionAt(anchorOffset(text, lineStart))
	if !ok {
		return located{}, noEnclosingFunction(r.path)
	}

	code, err := doc.TextRange(fn.StartOffset(), fn.EndOffset())
	if err != nil {
		return located{}, internal(r.path, err)
	}

	r.logger.Debug("enclosing function located",
		slog.String("function", fn.Name()),
		slog.Int("start_line", fn.StartLine()),
		slog.Int("end_line", fn.EndLine()),
	)
	return located{path: doc.Path(), fn: fn, code: code, index: index}, nil
}

type suggestionReply struct {
	text string
	err  error
}

// awaitSuggestions calls the suggestion service outside the document lock.
// Service failures and empty replies yield "" so the run degrades to no suggestions.
func (o *Orchestrator) awaitSuggestions(ctx context.Context, r *run, loc located) (string, *Error) {
	sctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	replies := make(chan suggestionReply, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				replies <- suggestionReply{err: fmt.Errorf("suggestion service panicked: %v", rec)}
			}
		}()
		text, err := o.suggester.Suggest(sctx, loc.code, loc.fn.StartLine())
		replies <- suggestionReply{text: text, err: err}
	}()

	select {
	case reply := <-replies:
		if reply.err != nil {
			if ctx.Err() != nil {
				return "", cancelled(r.path, ctx.Err())
			}
			if errors.Is(sctx.Err(), context.DeadlineExceeded) || deadlineError(reply.err) {
				return "", timeout(r.path, reply.err)
			}
			r.logger.WarnContext(ctx, "suggestion service failed", slog.String("error", reply.err.Error()))
			return "", nil
		}
		if strings.TrimSpace(reply.text) == "" {
			return "", nil
		}
		return reply.text, nil
	case <-sctx.Done():
		if ctx.Err() != nil {
			return "", cancelled(r.path, ctx.Err())
		}
		return "", timeout(r.path, sctx.Err())
	}
}

// deadlineError reports a deadline hit below the orchestrator, such as an
// HTTP client timeout inside the suggestion service.
func deadlineError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// anchorOffset skips leading indentation so the offset falls inside a
// declaration that starts on the line.
func anchorOffset(text string, lineStart int) int {
	i := lineStart
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if i < len(text) && text[i] != '\n' && text[i] != '\r' {
		return i
	}
	return lineStart
}

func openError(path string, err error) *Error {
	switch {
	case errors.Is(err, ErrNoActiveContext):
		return noActiveContext(path)
	case errors.Is(err, ErrFileNotFound):
		return fileNotFound(path, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return cancelled(path, err)
	default:
		return unreadableFile(path, err)
	}
}
