package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler writes one human-readable line per record:
//
//	2026-01-02 15:04:05 INFO publish [solana-101/index.md]: file uploaded storage_ref=tx-1 run=3f2a9c1e
//
// Component, package and path move into the header. The run id is shortened
// to its first eight characters. On warnings the impact and hint fields are
// written last so the line ends with what to do next.
type consoleHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
}

func newConsoleHandler(w io.Writer, level slog.Level) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup keeps attributes flat; tutorialpub does not group log fields.
func (h *consoleHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	line := consoleLine{fields: make([]slog.Attr, 0, len(h.attrs)+record.NumAttrs())}
	for _, attr := range h.attrs {
		line.add(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		line.add(attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.Format("2006-01-02 15:04:05"))
	b.WriteByte(' ')
	b.WriteString(levelName(record.Level))
	if line.component != "" {
		b.WriteByte(' ')
		b.WriteString(line.component)
	}
	if target := line.target(); target != "" {
		b.WriteString(" [")
		b.WriteString(target)
		b.WriteByte(']')
	}
	b.WriteString(": ")
	b.WriteString(strings.TrimSpace(record.Message))

	for _, attr := range line.fields {
		writeField(&b, attr.Key, attr.Value)
	}
	if line.runID != "" {
		writeField(&b, "run", slog.StringValue(shortRunID(line.runID)))
	}
	if line.impact.Key != "" {
		writeField(&b, line.impact.Key, line.impact.Value)
	}
	if line.hint.Key != "" {
		writeField(&b, "hint", line.hint.Value)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// consoleLine sorts a record's attributes into header parts and trailing
// fields. The first value seen for a header key wins.
type consoleLine struct {
	component string
	pkg       string
	path      string
	runID     string
	impact    slog.Attr
	hint      slog.Attr
	fields    []slog.Attr
}

func (l *consoleLine) add(attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		for _, member := range attr.Value.Group() {
			l.add(member)
		}
		return
	}
	if attr.Key == "" {
		return
	}
	switch attr.Key {
	case FieldComponent:
		setOnce(&l.component, attr.Value)
	case FieldPackage:
		setOnce(&l.pkg, attr.Value)
	case FieldPath:
		setOnce(&l.path, attr.Value)
	case FieldRunID:
		setOnce(&l.runID, attr.Value)
	case FieldImpact:
		l.impact = attr
	case FieldErrorHint:
		l.hint = attr
	default:
		l.fields = append(l.fields, attr)
	}
}

func (l *consoleLine) target() string {
	switch {
	case l.pkg != "" && l.path != "":
		return l.pkg + "/" + l.path
	case l.pkg != "":
		return l.pkg
	default:
		return l.path
	}
}

func setOnce(dst *string, v slog.Value) {
	if *dst == "" {
		*dst = v.String()
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func writeField(b *strings.Builder, key string, v slog.Value) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	var s string
	switch v.Kind() {
	case slog.KindDuration:
		s = v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " =\"\t\n") {
		s = strconv.Quote(s)
	}
	b.WriteString(s)
}

func levelName(level slog.Level) string {
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
