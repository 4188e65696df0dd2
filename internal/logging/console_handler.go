package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders one human-readable line per record:
//
//	2024-05-01T10:00:00Z INFO curation: [#7 · youtube:abc · acquiring] msg key=value
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	bound     []field // attrs from WithAttrs, already flattened
	prefix    string  // dotted group path from WithGroup
	addSource bool
}

type field struct {
	key   string
	value slog.Value
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: new(sync.Mutex), w: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, len(h.bound)+r.NumAttrs())
	fields = append(fields, h.bound...)
	r.Attrs(func(a slog.Attr) bool {
		fields = flatten(fields, h.prefix, a)
		return true
	})

	var subj subject
	rest := fields[:0]
	for _, f := range fields {
		if !subj.absorb(f) {
			rest = append(rest, f)
		}
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(levelLabel(r.Level))
	b.WriteByte(' ')
	if subj.component != "" {
		b.WriteString(subj.component + ": ")
	}
	if s := subj.String(); s != "" {
		b.WriteString("[" + s + "] ")
	}
	if msg := strings.TrimSpace(r.Message); msg != "" {
		b.WriteString(msg)
	} else {
		b.WriteString("(no message)")
	}
	if h.addSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range rest {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(formatValue(f.value))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.bound = append([]field(nil), h.bound...)
	for _, a := range attrs {
		next.bound = flatten(next.bound, h.prefix, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = joinKey(h.prefix, name)
	return &next
}

func flatten(dst []field, prefix string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = joinKey(prefix, a.Key)
		}
		for _, ga := range v.Group() {
			dst = flatten(dst, inner, ga)
		}
		return dst
	}
	key := joinKey(prefix, a.Key)
	return append(dst, field{key: key, value: redactValue(key, v)})
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

// subject collects the attributes that render as the bracketed line prefix.
// The first occurrence of each key wins.
type subject struct {
	component, itemID, platform, contentID, stage string
}

func (s *subject) absorb(f field) bool {
	var slot *string
	switch f.key {
	case FieldComponent:
		slot = &s.component
	case FieldItemID:
		slot = &s.itemID
	case FieldPlatform:
		slot = &s.platform
	case FieldContentID:
		slot = &s.contentID
	case FieldStage:
		slot = &s.stage
	default:
		return false
	}
	if *slot == "" {
		*slot = plainValue(f.value)
	}
	return true
}

func (s subject) String() string {
	return FormatSubject(s.itemID, s.platform, s.contentID, s.stage)
}

// FormatSubject joins the non-blank parts as "#item · platform:content · stage".
func FormatSubject(itemID, platform, contentID, stage string) string {
	var parts []string
	if itemID = strings.TrimSpace(itemID); itemID != "" {
		parts = append(parts, "#"+itemID)
	}
	platform, contentID = strings.TrimSpace(platform), strings.TrimSpace(contentID)
	if contentID != "" {
		if platform != "" {
			contentID = platform + ":" + contentID
		}
		parts = append(parts, contentID)
	}
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}

func plainValue(v slog.Value) string {
	if v.Kind() == slog.KindString {
		return v.String()
	}
	if err, ok := v.Any().(error); ok && v.Kind() == slog.KindAny {
		return err.Error()
	}
	return v.String()
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		s = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	default:
		s = plainValue(v)
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	return s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	})
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
