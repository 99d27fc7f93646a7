package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"
)

var levelColors = map[string]*color.Color{
	"DEBUG":    color.New(color.FgHiBlack),
	"INFO":     color.New(color.FgCyan),
	"WARNING":  color.New(color.FgYellow),
	"ERROR":    color.New(color.FgRed),
	"CRITICAL": color.New(color.FgHiRed, color.Bold),
}

// ConsoleHandler writes one line per record in the form
//
//	[LEVEL   ] name:  message key=value ...
type ConsoleHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	name   string
	attrs  []slog.Attr
	prefix string // group prefix for attribute keys
}

// NewConsoleHandler returns a handler emitting records at or above level
func NewConsoleHandler(w io.Writer, level slog.Leveler) *ConsoleHandler {
	return &ConsoleHandler{
		w:     w,
		mu:    &sync.Mutex{},
		level: level,
		name:  "root",
	}
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	name := LevelName(r.Level)
	label := fmt.Sprintf("[%-8s]", name)
	if c, ok := levelColors[name]; ok {
		label = c.Sprint(label)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s:  %s", label, h.name, r.Message)

	for _, a := range h.attrs {
		writeAttr(&buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == NameKey && h.prefix == "" {
			return true
		}
		writeAttr(&buf, h.prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		if a.Key == NameKey && h.prefix == "" {
			clone.name = a.Value.String()
			continue
		}
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(buf, prefix+a.Key+".", ga)
		}
		return
	}
	fmt.Fprintf(buf, " %s%s=%v", prefix, a.Key, a.Value.Any())
}
