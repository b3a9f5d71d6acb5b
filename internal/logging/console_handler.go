package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// consoleHandler writes one human-readable line per record:
//
//	15:04:05.000 INFO  [grouper] run 1f2e3d4c (group) grouping complete frames=120 segments=14
//
// Attributes bound through WithAttrs are flattened once and cached, and the
// component, run and stage keys are lifted out of the key=value tail.
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     *slog.LevelVar
	addSource bool

	prefix    string
	component string
	runID     string
	stage     string
	fields    []field
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, out: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	line := *h
	line.fields = append([]field(nil), h.fields...)
	record.Attrs(func(attr slog.Attr) bool {
		line.collect(h.prefix, attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.WriteString(ts.Local().Format(consoleTimeLayout))
	b.WriteString(" ")
	b.WriteString(levelTag(record.Level))
	if line.component != "" {
		fmt.Fprintf(&b, " [%s]", line.component)
	}
	if subject := runSubject(line.runID, line.stage); subject != "" {
		b.WriteString(" ")
		b.WriteString(subject)
	}
	b.WriteString(" ")
	if msg := strings.TrimSpace(record.Message); msg != "" {
		b.WriteString(msg)
	} else {
		b.WriteString("(no message)")
	}
	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&b, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range line.fields {
		b.WriteString(" ")
		b.WriteString(f.key)
		b.WriteString("=")
		b.WriteString(formatValue(f.value))
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, attr := range attrs {
		next.collect(h.prefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// collect flattens attr into h, lifting the well-known context keys.
func (h *consoleHandler) collect(prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix += attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			h.collect(prefix, member)
		}
		return
	}
	if prefix == "" {
		switch attr.Key {
		case FieldComponent:
			h.component = attrString(attr.Value)
			return
		case FieldRunID:
			h.runID = attrString(attr.Value)
			return
		case FieldStage:
			h.stage = attrString(attr.Value)
			return
		}
	}
	if attr.Key == "" {
		return
	}
	h.fields = append(h.fields, field{key: prefix + attr.Key, value: attr.Value})
}

// runSubject shortens a uuid run ID to its first block so lines stay narrow.
func runSubject(runID, stage string) string {
	runID, _, _ = strings.Cut(strings.TrimSpace(runID), "-")
	stage = strings.TrimSpace(stage)
	switch {
	case runID != "" && stage != "":
		return fmt.Sprintf("run %s (%s)", runID, stage)
	case runID != "":
		return "run " + runID
	case stage != "":
		return "(" + stage + ")"
	}
	return ""
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN "
	case level >= slog.LevelInfo:
		return "INFO "
	}
	return "DEBUG"
}
