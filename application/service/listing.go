package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cuboulder-se-research/em-assist/domain/extraction"
)

// DefaultLine is used when a request omits the line.
const DefaultLine = 1

// CandidateSource starts orchestrations.
type CandidateSource interface {
	Handle(ctx context.Context, filePath string, line int) *Future
}

// ListRequest asks for the candidates of the function at Line in FilePath.
type ListRequest struct {
	FilePath string `json:"filePath"`
	Line     *int   `json:"line"`
}

// LineOrDefault returns the requested line, or DefaultLine when absent.
func (r ListRequest) LineOrDefault() int {
	if r.Line == nil {
		return DefaultLine
	}
	return *r.Line
}

// CandidateView is the wire form of a candidate.
type CandidateView struct {
	FunctionName string `json:"functionName"`
	LineStart    int    `json:"lineStart"`
	LineEnd      int    `json:"lineEnd"`
	OffsetStart  int    `json:"offsetStart"`
	OffsetEnd    int    `json:"offsetEnd"`
	Type         string `json:"type"`
}

// ListResponse is the payload shared by every transport.
type ListResponse struct {
	Candidates []CandidateView `json:"candidates"`
	Error      *string         `json:"error"`
}

// IsError reports whether the response carries a failure.
func (r ListResponse) IsError() bool { return r.Error != nil }

// NewListResponse renders candidates as a successful response.
func NewListResponse(candidates []extraction.Candidate) ListResponse {
	views := make([]CandidateView, len(candidates))
	for i, c := range candidates {
		views[i] = CandidateView{
			FunctionName: c.FunctionName(),
			LineStart:    c.LineStart(),
			LineEnd:      c.LineEnd(),
			OffsetStart:  c.OffsetStart(),
			OffsetEnd:    c.OffsetEnd(),
			Type:         c.Kind().String(),
		}
	}
	return ListResponse{Candidates: views}
}

// NewErrorResponse renders a failure with no candidates.
func NewErrorResponse(message string) ListResponse {
	return ListResponse{Candidates: []CandidateView{}, Error: &message}
}

// Listing adapts transport requests to the orchestrator.
type Listing struct {
	source  CandidateSource
	cache   *CandidateCache
	resolve func(string) string
	logger  *slog.Logger
}

// ListingOption configures a Listing.
type ListingOption func(*Listing)

// WithPathResolver maps request paths to the paths documents are cached under.
func WithPathResolver(fn func(string) string) ListingOption {
	return func(l *Listing) {
		if fn != nil {
			l.resolve = fn
		}
	}
}

// NewListing creates a Listing.
func NewListing(source CandidateSource, cache *CandidateCache, logger *slog.Logger, opts ...ListingOption) *Listing {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Listing{
		source:  source,
		cache:   cache,
		resolve: func(p string) string { return p },
		logger:  logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// List runs one orchestration and waits for its result.
func (l *Listing) List(ctx context.Context, req ListRequest) ListResponse {
	if req.FilePath == "" {
		return NewErrorResponse("filePath is required")
	}

	fut := l.source.Handle(ctx, req.FilePath, req.LineOrDefault())
	result, err := fut.Wait(ctx)
	if err != nil {
		var oe *Error
		if errors.As(err, &oe) {
			return NewErrorResponse(oe.Message())
		}
		l.logger.Error("unexpected orchestration error", slog.String("error", err.Error()))
		return NewErrorResponse("Error processing suggestions: " + err.Error())
	}
	return NewListResponse(result.Candidates())
}

// Cached returns the last completed candidates for filePath.
func (l *Listing) Cached(filePath string) ListResponse {
	if filePath == "" {
		return NewErrorResponse("filePath is required")
	}
	candidates, ok := l.cache.Get(l.resolve(filePath))
	if !ok {
		return NewErrorResponse("No candidates cached for " + filePath)
	}
	return NewListResponse(candidates)
}
