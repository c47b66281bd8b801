package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiCyan   = "\033[36m"
)

// prefixKeys are shown in brackets ahead of the message instead of as key=value pairs.
var prefixKeys = map[string]bool{
	string(CorrelationIDKey): true,
	"orchestration_id":       true,
}

// TerminalHandler formats log records for a human reading a terminal.
//
// Output format:
//
//	15:04:05.000 INF [3f2a9c1e] orchestration completed path=/src/app.go candidates=2
type TerminalHandler struct {
	writer  io.Writer
	level   slog.Leveler
	attrs   []slog.Attr
	groups  []string
	noColor bool
	mu      *sync.Mutex
}

func newTerminalHandler(w io.Writer, opts *slog.HandlerOptions) *TerminalHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &TerminalHandler{
		writer: w,
		level:  level,
		mu:     &sync.Mutex{},
	}
}

// withoutColor returns a copy that writes plain text.
func (h *TerminalHandler) withoutColor() *TerminalHandler {
	c := *h
	c.noColor = true
	return &c
}

// Enabled reports whether the handler handles records at the given level.
func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle renders r as a single line.
func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	var line, tail bytes.Buffer
	line.Grow(256)

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	h.styled(&line, ansiDim, ts.Format("15:04:05.000"))
	line.WriteByte(' ')

	color, label := levelStyle(r.Level)
	h.styled(&line, color, label)
	line.WriteByte(' ')

	var ids []string
	collect := func(a slog.Attr, groups []string) {
		if len(groups) == 0 && prefixKeys[a.Key] {
			ids = append(ids, shortID(a.Value.Resolve().String()))
			return
		}
		h.appendAttr(&tail, a, groups)
	}
	// Handler attrs already carry their groups.
	for _, a := range h.attrs {
		collect(a, nil)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a, h.groups)
		return true
	})

	if len(ids) > 0 {
		h.styled(&line, ansiBlue, "["+strings.Join(ids, " ")+"]")
		line.WriteByte(' ')
	}
	h.styled(&line, ansiBold, r.Message)
	line.Write(tail.Bytes())
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(line.Bytes())
	return err
}

// WithAttrs returns a handler that also renders attrs on every record.
func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		if len(h.groups) > 0 {
			a = nestInGroups(a, h.groups)
		}
		c.attrs = append(c.attrs, a)
	}
	return &c
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *TerminalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(append([]string{}, h.groups...), name)
	return &c
}

func (h *TerminalHandler) styled(buf *bytes.Buffer, code, text string) {
	if h.noColor {
		buf.WriteString(text)
		return
	}
	buf.WriteString(code)
	buf.WriteString(text)
	buf.WriteString(ansiReset)
}

func (h *TerminalHandler) appendAttr(buf *bytes.Buffer, a slog.Attr, groups []string) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		prefix := groups
		if a.Key != "" {
			prefix = append(append([]string{}, groups...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, ga, prefix)
		}
		return
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	buf.WriteByte(' ')
	h.styled(buf, ansiDim, key+"=")
	buf.WriteString(formatAttrValue(a.Value))
}

// nestInGroups wraps an attribute added after WithGroup so its key keeps
// the group qualification once the handler's groups change.
func nestInGroups(a slog.Attr, groups []string) slog.Attr {
	for i := len(groups) - 1; i >= 0; i-- {
		a = slog.Attr{Key: groups[i], Value: slog.GroupValue(a)}
	}
	return a
}

func levelStyle(level slog.Level) (string, string) {
	switch {
	case level < slog.LevelInfo:
		return ansiCyan, "DBG"
	case level < slog.LevelWarn:
		return ansiGreen, "INF"
	case level < slog.LevelError:
		return ansiYellow, "WRN"
	default:
		return ansiRed, "ERR"
	}
}

func formatAttrValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"\\=") {
			return fmt.Sprintf("%q", s)
		}
		return s
	case slog.KindDuration:
		return v.Duration().Round(time.Microsecond).String()
	default:
		return v.String()
	}
}

// shortID keeps the first eight characters of a UUID-like identifier.
func shortID(id string) string {
	if len(id) > 8 && strings.Count(id, "-") == 4 {
		return id[:8]
	}
	return id
}
