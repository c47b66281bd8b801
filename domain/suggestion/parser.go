// Package suggestion decodes extract-function suggestions embedded in free-form
// text returned by a language model.
package suggestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/cuboulder-se-research/em-assist/domain/extraction"
)

// maxDepth bounds the search for a nested suggestion_list.
const maxDepth = 8

// lineNumber accepts 12, 12.0, "12" and "12.0".
type lineNumber int

func (n *lineNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(strings.Trim(string(data), `"`))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
		return fmt.Errorf("line number %s is not an integer", s)
	}
	*n = lineNumber(v)
	return nil
}

type item struct {
	FunctionName *string     `json:"function_name"`
	LineStart    *lineNumber `json:"line_start"`
	LineEnd      *lineNumber `json:"line_end"`
}

func (i item) complete() bool {
	return i.FunctionName != nil && i.LineStart != nil && i.LineEnd != nil
}

// Parser extracts suggestions from model output.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new Parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse returns the suggestions found in text, in payload order. Items that
// fail to decode are skipped one by one. Text without a decodable payload
// yields an empty slice.
func (p *Parser) Parse(text string) []extraction.RawSuggestion {
	text = stripThinking(text)

	for start := 0; start < len(text); start++ {
		c := text[start]
		if c != '{' && c != '[' {
			continue
		}

		var value json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&value); err != nil {
			continue
		}

		if raws, ok := findList(value, 0); ok {
			return p.toSuggestions(raws)
		}
		if suggestions := p.toSuggestions(bareItems(value)); len(suggestions) > 0 {
			return suggestions
		}
	}

	p.logger.Debug("no suggestion payload found", slog.Int("length", len(text)))
	return []extraction.RawSuggestion{}
}

// findList returns the items of the first suggestion_list array in value,
// searching nested objects and arrays in key order.
func findList(value json.RawMessage, depth int) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || depth > maxDepth {
		return nil, false
	}

	switch trimmed[0] {
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, false
		}
		if raw, ok := fields["suggestion_list"]; ok {
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, false
			}
			return items, true
		}
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if items, ok := findList(fields[k], depth+1); ok {
				return items, true
			}
		}
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, false
		}
		for _, e := range elems {
			if items, ok := findList(e, depth+1); ok {
				return items, true
			}
		}
	}
	return nil, false
}

// bareItems treats value as a list of items or a single item.
func bareItems(value json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil
		}
		return elems
	}
	return []json.RawMessage{trimmed}
}

func (p *Parser) toSuggestions(raws []json.RawMessage) []extraction.RawSuggestion {
	result := make([]extraction.RawSuggestion, 0, len(raws))
	for idx, raw := range raws {
		var i item
		if err := json.Unmarshal(raw, &i); err != nil {
			p.logger.Debug("skipping undecodable suggestion", slog.Int("index", idx), slog.String("error", err.Error()))
			continue
		}
		if !i.complete() {
			continue
		}
		result = append(result, extraction.NewRawSuggestion(*i.FunctionName, int(*i.LineStart), int(*i.LineEnd)))
	}
	return result
}

// stripThinking removes <think>...</think> blocks some models emit before answering.
func stripThinking(text string) string {
	for {
		start := strings.Index(text, "<think>")
		if start == -1 {
			return text
		}
		end := strings.Index(text[start:], "</think>")
		if end == -1 {
			return text[:start] + text[start+len("<think>"):]
		}
		text = text[:start] + text[start+end+len("</think>"):]
	}
}
