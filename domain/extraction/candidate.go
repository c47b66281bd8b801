package extraction

// Kind classifies how a suggestion mapped onto its enclosing function.
type Kind string

// Kind values.
const (
	KindAsIs     Kind = "AS_IS"
	KindAdjusted Kind = "ADJUSTED"
	KindInvalid  Kind = "INVALID"
)

// String returns the wire name of the kind.
func (k Kind) String() string { return string(k) }

// RawSuggestion is an unvalidated function name and 1-based inclusive line range.
type RawSuggestion struct {
	functionName string
	lineStart    int
	lineEnd      int
}

// NewRawSuggestion creates a RawSuggestion.
func NewRawSuggestion(functionName string, lineStart, lineEnd int) RawSuggestion {
	return RawSuggestion{
		functionName: functionName,
		lineStart:    lineStart,
		lineEnd:      lineEnd,
	}
}

// FunctionName returns the suggested name for the extracted function.
func (s RawSuggestion) FunctionName() string { return s.functionName }

// LineStart returns the first suggested line.
func (s RawSuggestion) LineStart() int { return s.lineStart }

// LineEnd returns the last suggested line.
func (s RawSuggestion) LineEnd() int { return s.lineEnd }

// Candidate is an offset-precise extraction unit derived from a RawSuggestion.
type Candidate struct {
	functionName string
	offsetStart  int
	offsetEnd    int
	lineStart    int
	lineEnd      int
	kind         Kind
}

// NewCandidate creates a Candidate.
func NewCandidate(functionName string, offsetStart, offsetEnd, lineStart, lineEnd int, kind Kind) Candidate {
	return Candidate{
		functionName: functionName,
		offsetStart:  offsetStart,
		offsetEnd:    offsetEnd,
		lineStart:    lineStart,
		lineEnd:      lineEnd,
		kind:         kind,
	}
}

// FunctionName returns the name for the extracted function.
func (c Candidate) FunctionName() string { return c.functionName }

// OffsetStart returns the inclusive start offset.
func (c Candidate) OffsetStart() int { return c.offsetStart }

// OffsetEnd returns the exclusive end offset.
func (c Candidate) OffsetEnd() int { return c.offsetEnd }

// LineStart returns the first line of the candidate.
func (c Candidate) LineStart() int { return c.lineStart }

// LineEnd returns the last line of the candidate.
func (c Candidate) LineEnd() int { return c.lineEnd }

// Kind returns the classification.
func (c Candidate) Kind() Kind { return c.kind }

// IsValid reports whether the offsets can be trusted.
func (c Candidate) IsValid() bool { return c.kind != KindInvalid }

// EnclosingFunction is the smallest named function containing a location.
// endOffset is exclusive.
type EnclosingFunction struct {
	name        string
	text        string
	startOffset int
	endOffset   int
	startLine   int
	endLine     int
}

// NewEnclosingFunction creates an EnclosingFunction.
func NewEnclosingFunction(name, text string, startOffset, endOffset, startLine, endLine int) EnclosingFunction {
	return EnclosingFunction{
		name:        name,
		text:        text,
		startOffset: startOffset,
		endOffset:   endOffset,
		startLine:   startLine,
		endLine:     endLine,
	}
}

// Name returns the function name.
func (f EnclosingFunction) Name() string { return f.name }

// Text returns the function source text.
func (f EnclosingFunction) Text() string { return f.text }

// StartOffset returns the inclusive start offset.
func (f EnclosingFunction) StartOffset() int { return f.startOffset }

// EndOffset returns the exclusive end offset.
func (f EnclosingFunction) EndOffset() int { return f.endOffset }

// StartLine returns the first line of the function.
func (f EnclosingFunction) StartLine() int { return f.startLine }

// EndLine returns the last line of the function.
func (f EnclosingFunction) EndLine() int { return f.endLine }

// Contains reports whether offset lies inside the function.
func (f EnclosingFunction) Contains(offset int) bool {
	return offset >= f.startOffset && offset < f.endOffset
}
