package service

import (
	"errors"
	"fmt"

	domainservice "github.com/cuboulder-se-research/em-assist/domain/service"
)

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = errors.New("em-assist: client is closed")

// Orchestration errors, matchable with errors.Is.
var (
	ErrNoActiveContext     = domainservice.ErrNoActiveContext
	ErrFileNotFound        = domainservice.ErrFileNotFound
	ErrUnreadableFile      = domainservice.ErrUnreadableFile
	ErrNoEnclosingFunction = errors.New("no enclosing function")
	ErrInvalidLine         = errors.New("invalid line")
	ErrTimeout             = errors.New("suggestion timeout")
	ErrInternal            = errors.New("internal error")
	ErrCancelled           = errors.New("cancelled")

	// ErrNoSuggestions is advisory: the request completed with nothing to suggest.
	ErrNoSuggestions = errors.New("no suggestions")
)

// ErrorKind classifies an orchestration failure.
type ErrorKind string

// ErrorKind values.
const (
	KindNoActiveContext     ErrorKind = "NoActiveContext"
	KindFileNotFound        ErrorKind = "FileNotFound"
	KindUnreadableFile      ErrorKind = "UnreadableFile"
	KindNoEnclosingFunction ErrorKind = "NoEnclosingFunction"
	KindInvalidLine         ErrorKind = "InvalidLine"
	KindTimeout             ErrorKind = "Timeout"
	KindInternal            ErrorKind = "InternalError"
	KindCancelled           ErrorKind = "Cancelled"
)

var sentinels = map[ErrorKind]error{
	KindNoActiveContext:     ErrNoActiveContext,
	KindFileNotFound:        ErrFileNotFound,
	KindUnreadableFile:      ErrUnreadableFile,
	KindNoEnclosingFunction: ErrNoEnclosingFunction,
	KindInvalidLine:         ErrInvalidLine,
	KindTimeout:             ErrTimeout,
	KindInternal:            ErrInternal,
	KindCancelled:           ErrCancelled,
}

// Error is a terminal orchestration failure. Its message is safe to show to callers.
type Error struct {
	kind    ErrorKind
	path    string
	message string
	cause   error
}

// NewError creates an Error.
func NewError(kind ErrorKind, path, message string, cause error) *Error {
	return &Error{
		kind:    kind,
		path:    path,
		message: message,
		cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string { return e.message }

// Unwrap exposes the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := sentinels[e.kind]; ok {
		errs = append(errs, s)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// Kind returns the failure classification.
func (e *Error) Kind() ErrorKind { return e.kind }

// Path returns the requested file path.
func (e *Error) Path() string { return e.path }

// Message returns the caller-facing message.
func (e *Error) Message() string { return e.message }

// Cause returns the underlying error, if any.
func (e *Error) Cause() error { return e.cause }

func noActiveContext(path string) *Error {
	return NewError(KindNoActiveContext, path, "No open project found", nil)
}

func fileNotFound(path string, cause error) *Error {
	return NewError(KindFileNotFound, path, "File not found: "+path, cause)
}

func unreadableFile(path string, cause error) *Error {
	return NewError(KindUnreadableFile, path, "Could not parse file", cause)
}

func noEnclosingFunction(path string) *Error {
	return NewError(KindNoEnclosingFunction, path, "No function found at location", nil)
}

func invalidLine(path string, line int, cause error) *Error {
	return NewError(KindInvalidLine, path, fmt.Sprintf("Line %d is outside file %s", line, path), cause)
}

func timeout(path string, cause error) *Error {
	return NewError(KindTimeout, path, "Timeout: LLM suggestions took too long or failed.", cause)
}

func internal(path string, cause error) *Error {
	return NewError(KindInternal, path, "Error processing suggestions: "+cause.Error(), cause)
}

func cancelled(path string, cause error) *Error {
	return NewError(KindCancelled, path, "Request cancelled", cause)
}
