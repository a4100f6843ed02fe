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

const logTimestampLayout = "2006-01-02 15:04:05"

// prettyHandler writes one human-readable line per record:
//
//	2024-05-01 10:00:00 WARN [dispatch] Actor "Tom Hanks" · Item #512 – edit failed title=Big
type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	prefix    string
	addSource bool
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// consoleLine collects the subject fields the handler lifts out of the
// key=value tail.
type consoleLine struct {
	component string
	ruleKind  string
	rule      string
	item      string
	fields    strings.Builder
}

func (l *consoleLine) add(key string, value slog.Value) {
	value = value.Resolve()
	if value.Kind() == slog.KindGroup {
		for _, attr := range value.Group() {
			l.add(joinKey(key, attr.Key), attr.Value)
		}
		return
	}
	if key == "" {
		return
	}
	text := valueText(value)
	switch key {
	case FieldComponent:
		setOnce(&l.component, text)
	case FieldRuleKind:
		setOnce(&l.ruleKind, text)
	case FieldRule:
		setOnce(&l.rule, text)
	case FieldItem:
		setOnce(&l.item, text)
	default:
		l.fields.WriteByte(' ')
		l.fields.WriteString(key)
		l.fields.WriteByte('=')
		l.fields.WriteString(quoteIfNeeded(text))
	}
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	var line consoleLine
	for _, attr := range h.attrs {
		line.add(attr.Key, attr.Value)
	}
	record.Attrs(func(attr slog.Attr) bool {
		line.add(joinKey(h.prefix, attr.Key), attr.Value)
		return true
	})

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	var b strings.Builder
	b.WriteString(timestamp.In(time.Local).Format(logTimestampLayout))
	b.WriteByte(' ')
	b.WriteString(levelLabel(record.Level))
	if line.component != "" {
		fmt.Fprintf(&b, " [%s]", line.component)
	}
	if subject := composeSubject(line.ruleKind, line.rule, line.item); subject != "" {
		b.WriteByte(' ')
		b.WriteString(subject)
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}
	b.WriteString(" – ")
	b.WriteString(message)
	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteString(line.fields.String())
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, attr := range attrs {
		attr.Key = joinKey(h.prefix, attr.Key)
		clone.attrs = append(clone.attrs, attr)
	}
	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// composeSubject renders the rule/item subject, e.g. `Actor "Tom Hanks" · Item #512`.
func composeSubject(kind, rule, item string) string {
	kind = strings.TrimSpace(kind)
	rule = strings.TrimSpace(rule)
	item = strings.TrimSpace(item)
	parts := make([]string, 0, 2)
	if rule != "" {
		if kind != "" {
			parts = append(parts, strings.ToUpper(kind[:1])+strings.ToLower(kind[1:])+" "+strconv.Quote(rule))
		} else {
			parts = append(parts, strconv.Quote(rule))
		}
	}
	if item != "" {
		parts = append(parts, "Item #"+item)
	}
	return strings.Join(parts, " · ")
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

func setOnce(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

// valueText renders the attribute kinds autocollect logs: strings, counts,
// flags and errors.
func valueText(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n=\"") {
		return strconv.Quote(s)
	}
	return s
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
