package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/term"
)

// ANSI color codes
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

// ConsoleHandler is a slog.Handler for humans watching a terminal:
// LEVEL HH:MM:SS [scope] message key=value key=value
type ConsoleHandler struct {
	w     io.Writer
	level slog.Level
	mu    *sync.Mutex
	scope string
	color bool
	attrs []slog.Attr
}

// NewConsoleHandler creates a console handler. Colors are used only
// when the writer is a terminal.
func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	level := slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level.Level()
	}
	return &ConsoleHandler{
		w:     w,
		level: level,
		mu:    &sync.Mutex{},
		color: writerIsTerminal(w),
	}
}

func writerIsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Enabled reports whether the handler handles records at the given level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes a log record
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	h.writeColored(&buf, levelLabel(r.Level), h.levelColor(r.Level))
	buf.WriteByte(' ')
	h.writeColored(&buf, r.Time.Format("15:04:05"), ansiGray)

	if h.scope != "" {
		fmt.Fprintf(&buf, " [%s]", h.scope)
	}

	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		h.appendAttr(&buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, a)
		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *ConsoleHandler) writeColored(buf *bytes.Buffer, s, color string) {
	if h.color {
		buf.WriteString(color)
		buf.WriteString(s)
		buf.WriteString(ansiReset)
		return
	}
	buf.WriteString(s)
}

// appendAttr appends a key=value pair. The scope attr is rendered in
// brackets instead, so it is skipped here.
func (h *ConsoleHandler) appendAttr(buf *bytes.Buffer, a slog.Attr) {
	if a.Key == "scope" {
		return
	}
	fmt.Fprintf(buf, " %s=%v", a.Key, a.Value.Any())
}

// WithAttrs returns a new handler with the given attributes added.
// A "scope" attribute moves into the bracketed prefix.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := h.clone()
	for _, a := range attrs {
		if a.Key == "scope" {
			out.scope = a.Value.String()
			continue
		}
		out.attrs = append(out.attrs, a)
	}
	return out
}

// WithGroup is accepted but groups are not rendered; attribute keys
// stay flat in the console format.
func (h *ConsoleHandler) WithGroup(string) slog.Handler {
	return h.clone()
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	attrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+4)
	copy(attrs, h.attrs)
	return &ConsoleHandler{
		w:     h.w,
		level: h.level,
		mu:    h.mu,
		scope: h.scope,
		color: h.color,
		attrs: attrs,
	}
}

func (h *ConsoleHandler) levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYellow
	case level >= slog.LevelInfo:
		return ansiCyan
	default:
		return ansiGray
	}
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
