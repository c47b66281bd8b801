package extraction

// Resolve maps raw onto fn. Lines are clamped to the buffer and offsets to
// [fn.StartOffset, fn.EndOffset). Unmappable or empty ranges are INVALID
// with both offsets set to fn.StartOffset and the raw lines put in order.
func Resolve(raw RawSuggestion, fn EnclosingFunction, index LineIndex) Candidate {
	invalid := NewCandidate(raw.FunctionName(), fn.StartOffset(), fn.StartOffset(),
		min(raw.LineStart(), raw.LineEnd()), max(raw.LineStart(), raw.LineEnd()), KindInvalid)

	if raw.LineEnd() < raw.LineStart() {
		return invalid
	}

	adjusted := false
	lineStart, lineEnd := raw.LineStart(), raw.LineEnd()
	if lineStart < 1 {
		lineStart = 1
		adjusted = true
	}
	if lineEnd > index.LineCount() {
		lineEnd = index.LineCount()
		adjusted = true
	}
	if lineEnd < lineStart {
		return invalid
	}

	start, err := index.OffsetOfLineStart(lineStart)
	if err != nil {
		return invalid
	}
	end, err := index.OffsetOfLineEnd(lineEnd)
	if err != nil {
		return invalid
	}

	if start < fn.StartOffset() {
		start = fn.StartOffset()
		adjusted = true
	}
	if end > fn.EndOffset() {
		end = fn.EndOffset()
		adjusted = true
	}
	if end <= start {
		return invalid
	}

	first, err := index.LineOfOffset(start)
	if err != nil {
		return invalid
	}
	last, err := index.LineOfOffset(end - 1)
	if err != nil {
		return invalid
	}

	kind := KindAsIs
	if adjusted {
		kind = KindAdjusted
	}
	return NewCandidate(raw.FunctionName(), start, end, first, last, kind)
}

// ResolveAll resolves each suggestion in order.
func ResolveAll(raws []RawSuggestion, fn EnclosingFunction, index LineIndex) []Candidate {
	candidates := make([]Candidate, 0, len(raws))
	for _, raw := range raws {
		candidates = append(candidates, Resolve(raw, fn, index))
	}
	return candidates
}
