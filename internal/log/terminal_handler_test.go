package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTerminalHandler_PlainLines(t *testing.T) {
	ts := time.Date(2026, 3, 9, 14, 5, 7, 250000000, time.UTC)

	tests := []struct {
		name  string
		level slog.Level
		msg   string
		attrs []slog.Attr
		want  string
	}{
		{
			name:  "resolution",
			level: slog.LevelInfo,
			msg:   "orchestration started",
			attrs: []slog.Attr{slog.String("path", "/src/app.go"), slog.Int("line", 12)},
			want:  "14:05:07.250 INF orchestration started path=/src/app.go line=12",
		},
		{
			name:  "debug label",
			level: slog.LevelDebug,
			msg:   "no suggestion payload found",
			attrs: []slog.Attr{slog.Int("length", 0)},
			want:  "14:05:07.250 DBG no suggestion payload found length=0",
		},
		{
			name:  "quoted values",
			level: slog.LevelWarn,
			msg:   "suggestions degraded",
			attrs: []slog.Attr{slog.String("error", "connection refused"), slog.String("model", ""), slog.String("expr", "a=b")},
			want:  `14:05:07.250 WRN suggestions degraded error="connection refused" model="" expr="a=b"`,
		},
		{
			name:  "duration rounded",
			level: slog.LevelError,
			msg:   "suggestion timeout",
			attrs: []slog.Attr{slog.Duration("elapsed", 1234567*time.Nanosecond)},
			want:  "14:05:07.250 ERR suggestion timeout elapsed=1.235ms",
		},
		{
			name:  "group flattened",
			level: slog.LevelInfo,
			msg:   "request",
			attrs: []slog.Attr{slog.Group("http", slog.String("method", "POST"), slog.Int("status", 200))},
			want:  "14:05:07.250 INF request http.method=POST http.status=200",
		},
		{
			name:  "correlation prefix",
			level: slog.LevelInfo,
			msg:   "list candidates",
			attrs: []slog.Attr{slog.String(string(CorrelationIDKey), "corr-42"), slog.String("path", "a.go")},
			want:  "14:05:07.250 INF [corr-42] list candidates path=a.go",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := newTerminalHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}).withoutColor()

			r := slog.NewRecord(ts, tt.level, tt.msg, 0)
			r.AddAttrs(tt.attrs...)
			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error: %v", err)
			}

			if got := buf.String(); got != tt.want+"\n" {
				t.Errorf("line = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTerminalHandler_ColouredLevel(t *testing.T) {
	var buf bytes.Buffer
	h := newTerminalHandler(&buf, nil)

	slog.New(h).Error("orchestration failed")

	output := buf.String()
	if !strings.Contains(output, ansiRed+"ERR"+ansiReset) {
		t.Errorf("expected red level label, got: %q", output)
	}
	if !strings.Contains(output, ansiBold+"orchestration failed"+ansiReset) {
		t.Errorf("expected bold message, got: %q", output)
	}
}

func TestTerminalHandler_Enabled(t *testing.T) {
	tests := []struct {
		name    string
		opts    *slog.HandlerOptions
		enabled map[slog.Level]bool
	}{
		{
			name:    "default info",
			opts:    nil,
			enabled: map[slog.Level]bool{slog.LevelDebug: false, slog.LevelInfo: true, slog.LevelError: true},
		},
		{
			name:    "warn",
			opts:    &slog.HandlerOptions{Level: slog.LevelWarn},
			enabled: map[slog.Level]bool{slog.LevelInfo: false, slog.LevelWarn: true, slog.LevelError: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTerminalHandler(&bytes.Buffer{}, tt.opts)
			for level, want := range tt.enabled {
				if got := h.Enabled(context.Background(), level); got != want {
					t.Errorf("Enabled(%s) = %v, want %v", level, got, want)
				}
			}
		})
	}
}

func TestTerminalHandler_NoopDerivations(t *testing.T) {
	h := newTerminalHandler(&bytes.Buffer{}, nil)

	if h.WithGroup("") != slog.Handler(h) {
		t.Error("WithGroup(\"\") should return the same handler")
	}
	if h.WithAttrs(nil) != slog.Handler(h) {
		t.Error("WithAttrs(nil) should return the same handler")
	}
}

func TestTerminalHandler_ConcurrentLinesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTerminalHandler(&buf, nil).withoutColor())

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("worker finished", slog.Int("worker", i))
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("got %d lines, want 20", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, " INF worker finished worker=") {
			t.Errorf("interleaved line: %q", line)
		}
	}
}

func TestTerminalHandler_WithoutColor(t *testing.T) {
	var buf bytes.Buffer
	h := newTerminalHandler(&buf, nil).withoutColor()

	r := slog.NewRecord(time.Now(), slog.LevelWarn, "plain", 0)
	r.AddAttrs(slog.Int("line", 12))
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "\033[") {
		t.Errorf("expected no escape codes, got: %q", output)
	}
	if !strings.Contains(output, "WRN plain line=12") {
		t.Errorf("unexpected output: %q", output)
	}
}

func TestTerminalHandler_IDPrefix(t *testing.T) {
	var buf bytes.Buffer
	h := newTerminalHandler(&buf, nil).withoutColor()
	logger := slog.New(h).With(slog.String("orchestration_id", "3f2a9c1e-0000-4000-8000-000000000000"))

	logger.Info("orchestration completed", slog.Int("candidates", 2))

	output := buf.String()
	if !strings.Contains(output, "INF [3f2a9c1e] orchestration completed candidates=2") {
		t.Errorf("unexpected output: %q", output)
	}
}

func TestTerminalHandler_AttrsAfterGroup(t *testing.T) {
	var buf bytes.Buffer
	h := newTerminalHandler(&buf, nil).withoutColor()
	logger := slog.New(h).WithGroup("llm").With(slog.String("model", "gpt")).WithGroup("usage")

	logger.Info("reply", slog.Int("tokens", 5))

	output := buf.String()
	if !strings.Contains(output, "llm.model=gpt") {
		t.Errorf("expected llm.model, got: %q", output)
	}
	if !strings.Contains(output, "llm.usage.tokens=5") {
		t.Errorf("expected llm.usage.tokens, got: %q", output)
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"3f2a9c1e-0000-4000-8000-000000000000", "3f2a9c1e"},
		{"corr-123", "corr-123"},
		{"a-b-c-d-e-f-g", "a-b-c-d-e-f-g"},
	}

	for _, tt := range tests {
		if got := shortID(tt.input); got != tt.want {
			t.Errorf("shortID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
