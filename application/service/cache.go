package service

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/cuboulder-se-research/em-assist/domain/extraction"
)

// CandidateCache holds the most recently completed candidate list per file.
// Safe for concurrent use. Entries live until the process exits.
type CandidateCache struct {
	mu      sync.RWMutex
	entries map[string][]extraction.Candidate
}

// NewCandidateCache creates an empty cache.
func NewCandidateCache() *CandidateCache {
	return &CandidateCache{
		entries: make(map[string][]extraction.Candidate),
	}
}

// Put replaces the entry for path.
func (c *CandidateCache) Put(path string, candidates []extraction.Candidate) {
	cp := make([]extraction.Candidate, len(candidates))
	copy(cp, candidates)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(path)] = cp
}

// Get returns the entry for path.
func (c *CandidateCache) Get(path string) ([]extraction.Candidate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	candidates, ok := c.entries[cacheKey(path)]
	if !ok {
		return nil, false
	}
	cp := make([]extraction.Candidate, len(candidates))
	copy(cp, candidates)
	return cp, true
}

// Len returns the number of cached paths.
func (c *CandidateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Paths returns the cached paths in sorted order.
func (c *CandidateCache) Paths() []string {
	c.mu.RLock()
	paths := make([]string, 0, len(c.entries))
	for p := range c.entries {
		paths = append(paths, p)
	}
	c.mu.RUnlock()

	sort.Strings(paths)
	return paths
}

func cacheKey(path string) string {
	return filepath.Clean(path)
}
