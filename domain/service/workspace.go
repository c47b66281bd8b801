// Package service declares the collaborators the extraction pipeline consumes.
package service

import (
	"context"
	"errors"

	"github.com/cuboulder-se-research/em-assist/domain/extraction"
)

// Workspace errors.
var (
	// ErrNoActiveContext indicates no workspace root is open.
	ErrNoActiveContext = errors.New("no active workspace")

	// ErrFileNotFound indicates the requested path does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnreadableFile indicates the file exists but could not be read or parsed.
	ErrUnreadableFile = errors.New("unreadable file")
)

// Workspace resolves file paths to parsed source documents.
type Workspace interface {
	// Active reports whether a workspace root is open.
	Active() bool

	// Open returns the document at path, parsing it if needed.
	Open(ctx context.Context, path string) (Document, error)
}

// Document is a read-only view of one parsed source file.
// Callers must hold the lock from LockForRead while calling the other methods.
// Hosts backed by a live editor buffer block edits while it is held; immutable
// snapshots may return a no-op release.
type Document interface {
	// Path returns the absolute path of the document.
	Path() string

	// Text returns the full source text.
	Text() string

	// LockForRead acquires shared access and returns the release func.
	LockForRead() (unlock func())

	// EnclosingFunctionAt returns the smallest named function containing offset.
	EnclosingFunctionAt(offset int) (extraction.EnclosingFunction, bool)

	// TextRange returns the text between start (inclusive) and end (exclusive).
	TextRange(start, end int) (string, error)
}
