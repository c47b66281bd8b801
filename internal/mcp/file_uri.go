package mcp

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// candidatesScheme prefixes resource URIs for cached candidates.
const candidatesScheme = "candidates://"

// CandidatesURI names the cached candidate list of one source file.
type CandidatesURI struct {
	path string
}

// NewCandidatesURI creates a CandidatesURI for an absolute file path.
func NewCandidatesURI(path string) CandidatesURI {
	return CandidatesURI{path: filepath.Clean(path)}
}

// ParseCandidatesURI extracts the file path from a candidates:// URI.
func ParseCandidatesURI(raw string) (CandidatesURI, error) {
	rest, ok := strings.CutPrefix(raw, candidatesScheme)
	if !ok {
		return CandidatesURI{}, fmt.Errorf("not a candidates URI: %s", raw)
	}
	path, err := url.PathUnescape(rest)
	if err != nil {
		return CandidatesURI{}, fmt.Errorf("decode candidates URI %s: %w", raw, err)
	}
	if path == "" {
		return CandidatesURI{}, fmt.Errorf("candidates URI %s has no path", raw)
	}
	return NewCandidatesURI(path), nil
}

// Path returns the file path.
func (u CandidatesURI) Path() string { return u.path }

// String builds the URI.
func (u CandidatesURI) String() string {
	return candidatesScheme + filepath.ToSlash(u.path)
}
