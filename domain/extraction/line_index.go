// Package extraction resolves line-based extract-function suggestions into
// offset-precise candidates inside an enclosing function.
package extraction

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOutOfRange indicates a line or offset that does not exist in a buffer.
var ErrOutOfRange = errors.New("out of range")

// LineIndex maps between 1-based line numbers and byte offsets of a buffer.
// Immutable once built.
type LineIndex struct {
	starts []int
	length int
}

// NewLineIndex computes line-start offsets for buffer.
func NewLineIndex(buffer string) LineIndex {
	starts := make([]int, 1, 64)
	for i := 0; i < len(buffer); i++ {
		if buffer[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return LineIndex{starts: starts, length: len(buffer)}
}

// LineCount returns the number of lines. A trailing newline opens an empty final line.
func (x LineIndex) LineCount() int { return len(x.starts) }

// Len returns the buffer length in bytes.
func (x LineIndex) Len() int { return x.length }

// OffsetOfLineStart returns the offset of the first character of line.
func (x LineIndex) OffsetOfLineStart(line int) (int, error) {
	if line < 1 || line > len(x.starts) {
		return 0, fmt.Errorf("line %d of %d: %w", line, len(x.starts), ErrOutOfRange)
	}
	return x.starts[line-1], nil
}

// OffsetOfLineEnd returns the exclusive end offset of line's content,
// not counting its terminator.
func (x LineIndex) OffsetOfLineEnd(line int) (int, error) {
	if line < 1 || line > len(x.starts) {
		return 0, fmt.Errorf("line %d of %d: %w", line, len(x.starts), ErrOutOfRange)
	}
	if line == len(x.starts) {
		return x.length, nil
	}
	return x.starts[line] - 1, nil
}

// LineOfOffset returns the line containing offset, rounding down.
func (x LineIndex) LineOfOffset(offset int) (int, error) {
	if offset < 0 || offset > x.length {
		return 0, fmt.Errorf("offset %d of %d: %w", offset, x.length, ErrOutOfRange)
	}
	// first start strictly greater than offset, minus one
	i := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > offset })
	return i, nil
}
