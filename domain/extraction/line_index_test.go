package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineIndex_OffsetOfLineStart(t *testing.T) {
	index := NewLineIndex("ab\ncd\n\nef")

	tests := []struct {
		line int
		want int
	}{
		{1, 0},
		{2, 3},
		{3, 6},
		{4, 7},
	}

	for _, tt := range tests {
		got, err := index.OffsetOfLineStart(tt.line)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "line %d", tt.line)
	}
	assert.Equal(t, 4, index.LineCount())
}

func TestLineIndex_OutOfRange(t *testing.T) {
	index := NewLineIndex("one\ntwo")

	_, err := index.OffsetOfLineStart(0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = index.OffsetOfLineStart(3)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = index.LineOfOffset(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = index.LineOfOffset(8)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestLineIndex_TrailingNewline(t *testing.T) {
	index := NewLineIndex("a\nb\n")

	assert.Equal(t, 3, index.LineCount())

	start, err := index.OffsetOfLineStart(3)
	require.NoError(t, err)
	assert.Equal(t, 4, start)

	end, err := index.OffsetOfLineEnd(3)
	require.NoError(t, err)
	assert.Equal(t, 4, end)
}

func TestLineIndex_OffsetOfLineEnd(t *testing.T) {
	index := NewLineIndex("abc\nde\nf")

	end, err := index.OffsetOfLineEnd(1)
	require.NoError(t, err)
	assert.Equal(t, 3, end)

	end, err = index.OffsetOfLineEnd(2)
	require.NoError(t, err)
	assert.Equal(t, 6, end)

	end, err = index.OffsetOfLineEnd(3)
	require.NoError(t, err)
	assert.Equal(t, 8, end)
}

func TestLineIndex_LineOfOffsetRoundsDown(t *testing.T) {
	index := NewLineIndex("abc\nde\nf")

	tests := []struct {
		offset int
		want   int
	}{
		{0, 1},
		{2, 1},
		{3, 1}, // the terminator belongs to the line it ends
		{4, 2},
		{6, 2},
		{7, 3},
		{8, 3},
	}

	for _, tt := range tests {
		got, err := index.LineOfOffset(tt.offset)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "offset %d", tt.offset)
	}
}

func TestLineIndex_RoundTrip(t *testing.T) {
	buffers := []string{
		"",
		"single line",
		"a\nb\nc",
		"\n\n\n",
		"package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n",
	}

	for _, buf := range buffers {
		index := NewLineIndex(buf)
		for line := 1; line <= index.LineCount(); line++ {
			offset, err := index.OffsetOfLineStart(line)
			require.NoError(t, err)

			back, err := index.LineOfOffset(offset)
			require.NoError(t, err)
			assert.Equal(t, line, back, "buffer %q line %d", buf, line)
		}
	}
}
