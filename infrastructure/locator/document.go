package locator

import (
	"fmt"
	"time"

	"github.com/cuboulder-se-research/em-assist/domain/extraction"
	domainservice "github.com/cuboulder-se-research/em-assist/domain/service"
)

// Document is an immutable parsed snapshot of one source file. The syntax tree
// is reduced to its function table at load time, so reads never touch cgo
// state. A changed file gets a new Document; this one is never mutated.
type Document struct {
	path      string
	language  string
	text      string
	functions []extraction.EnclosingFunction
	modTime   time.Time
	size      int64
}

func newDocument(path, language, text string, fns []functionNode, modTime time.Time, size int64) *Document {
	functions := make([]extraction.EnclosingFunction, 0, len(fns))
	for _, fn := range fns {
		functions = append(functions, extraction.NewEnclosingFunction(
			fn.name,
			text[fn.startByte:fn.endByte],
			fn.startByte,
			fn.endByte,
			fn.startRow+1,
			fn.endRow+1,
		))
	}
	return &Document{
		path:      path,
		language:  language,
		text:      text,
		functions: functions,
		modTime:   modTime,
		size:      size,
	}
}

// Path returns the absolute file path.
func (d *Document) Path() string { return d.path }

// Language returns the grammar name used to parse the file.
func (d *Document) Language() string { return d.language }

// Text returns the full file contents.
func (d *Document) Text() string { return d.text }

// Functions returns every named function in the file.
func (d *Document) Functions() []extraction.EnclosingFunction {
	out := make([]extraction.EnclosingFunction, len(d.functions))
	copy(out, d.functions)
	return out
}

// LockForRead is a no-op: a snapshot cannot change under its readers.
func (d *Document) LockForRead() func() {
	return func() {}
}

// EnclosingFunctionAt returns the innermost named function containing offset.
func (d *Document) EnclosingFunctionAt(offset int) (extraction.EnclosingFunction, bool) {
	var best extraction.EnclosingFunction
	found := false
	for _, fn := range d.functions {
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

// TextRange returns text[start:end].
func (d *Document) TextRange(start, end int) (string, error) {
	if start < 0 || end > len(d.text) || start > end {
		return "", fmt.Errorf("range %d-%d of %s: %w", start, end, d.path, extraction.ErrOutOfRange)
	}
	return d.text[start:end], nil
}

func (d *Document) fresh(modTime time.Time, size int64) bool {
	return d.modTime.Equal(modTime) && d.size == size
}

var _ domainservice.Document = (*Document)(nil)
