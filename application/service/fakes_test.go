package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuboulder-se-research/em-assist/domain/extraction"
	domainservice "github.com/cuboulder-se-research/em-assist/domain/service"
)

// fakeDocument is an in-memory Document with fixed functions.
type fakeDocument struct {
	path        string
	text        string
	fns         []extraction.EnclosingFunction
	mu          sync.RWMutex
	held        atomic.Int32
	panicOnText bool
}

func (d *fakeDocument) Path() string { return d.path }
func (d *fakeDocument) Text() string { return d.text }

func (d *fakeDocument) LockForRead() func() {
	d.mu.RLock()
	d.held.Add(1)
	return func() {
		d.held.Add(-1)
		d.mu.RUnlock()
	}
}

func (d *fakeDocument) EnclosingFunctionAt(offset int) (extraction.EnclosingFunction, bool) {
	var best extraction.EnclosingFunction
	found := false
	for _, fn := range d.fns {
		if !fn.Contains(offset) {
			continue
		}
		if !found || fn.EndOffset()-fn.StartOffset() < best.EndOffset()-best.StartOffset() {
			best = fn
			found = true
		}
	}
	return best, found
}

func (d *fakeDocument) TextRange(start, end int) (string, error) {
	if d.panicOnText {
		panic("text range exploded")
	}
	if start < 0 || end > len(d.text) || start > end {
		return "", fmt.Errorf("range %d-%d: %w", start, end, extraction.ErrOutOfRange)
	}
	return d.text[start:end], nil
}

// fakeWorkspace serves fakeDocuments by path.
type fakeWorkspace struct {
	active bool
	docs   map[string]*fakeDocument
	err    error
}

func (w *fakeWorkspace) Active() bool { return w.active }

func (w *fakeWorkspace) Open(_ context.Context, path string) (domainservice.Document, error) {
	if w.err != nil {
		return nil, w.err
	}
	doc, ok := w.docs[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, domainservice.ErrFileNotFound)
	}
	return doc, nil
}

// fakeSuggester returns a canned reply, optionally after a delay or never.
type fakeSuggester struct {
	reply   string
	err     error
	delay   time.Duration
	block   bool
	release chan struct{}
	calls   atomic.Int32
	code    atomic.Value
}

func (s *fakeSuggester) Suggest(ctx context.Context, code string, _ int) (string, error) {
	s.calls.Add(1)
	s.code.Store(code)
	if s.block {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-s.release:
			return s.reply, s.err
		}
	}
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.reply, s.err
}

// fakeRecorder captures outcomes.
type fakeRecorder struct {
	mu       sync.Mutex
	started  int
	outcomes []string
}

func (r *fakeRecorder) Started() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *fakeRecorder) Finished(outcome string, _ time.Duration, _ []extraction.Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) Outcomes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// fooDocument is a 30-line file where foo spans lines 10 to 20, indented by a tab.
func fooDocument(path string) *fakeDocument {
	lines := make([]string, 30)
	for i := range lines {
		lines[i] = fmt.Sprintf("\tstmt%02d()", i+1)
	}
	lines[9] = "\tfunc foo() {"
	lines[10] = "\t\t// " + path
	lines[19] = "\t}"
	text := strings.Join(lines, "\n")
	index := extraction.NewLineIndex(text)

	lineStart, _ := index.OffsetOfLineStart(10)
	start := lineStart + 1
	end, _ := index.OffsetOfLineEnd(20)

	return &fakeDocument{
		path: path,
		text: text,
		fns: []extraction.EnclosingFunction{
			extraction.NewEnclosingFunction("foo", text[start:end], start, end, 10, 20),
		},
	}
}

const barReply = `Here you go:
{"suggestion_list": [
  {"function_name": "bar", "line_start": 12, "line_end": 15},
  {"function_name": "baz", "line_start": 5, "line_end": 15},
  {"function_name": "qux", "line_start": 25, "line_end": 30}
]}`
