package transfer

import (
	"context"
	"log/slog"
	"strings"

	"dts-connector/internal/domain"
)

// NewRunLogger returns a logger whose Info/Warn/Error records are captured
// as LogEntries in buf for delivery to the tracking service, and teed to
// base's handler so run logs still reach the process output. Records below
// Info are never buffered.
func NewRunLogger(base *slog.Logger, buf *MessageBuffer) *slog.Logger {
	return slog.New(&bufferHandler{buf: buf, next: base.Handler()})
}

// bufferHandler is the slog.Handler behind NewRunLogger.
type bufferHandler struct {
	buf    *MessageBuffer
	next   slog.Handler
	prefix string // accumulated group prefix, "a.b."
	attrs  []slog.Attr
}

// severityForLevel maps an slog level onto a tracking-service severity.
// Levels outside INFO/WARNING/ERROR are dropped from the buffer.
func severityForLevel(level slog.Level) (domain.MessageSeverity, bool) {
	switch {
	case level >= slog.LevelError:
		return domain.SeverityError, true
	case level >= slog.LevelWarn:
		return domain.SeverityWarning, true
	case level >= slog.LevelInfo:
		return domain.SeverityInfo, true
	default:
		return "", false
	}
}

func (h *bufferHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo || h.next.Enabled(ctx, level)
}

func (h *bufferHandler) Handle(ctx context.Context, r slog.Record) error {
	if severity, ok := severityForLevel(r.Level); ok {
		// Format the full text now: the record's attrs must not be
		// needed after this call returns.
		var sb strings.Builder
		sb.WriteString(r.Message)
		for _, a := range h.attrs {
			writeAttr(&sb, h.prefix, a)
		}
		r.Attrs(func(a slog.Attr) bool {
			writeAttr(&sb, h.prefix, a)
			return true
		})
		h.buf.Append(domain.LogEntry{
			Time:     r.Time.UTC(),
			Severity: severity,
			Text:     sb.String(),
		})
	}
	if h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	sb.WriteString(a.Value.Resolve().String())
}

func (h *bufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	clone.next = h.next.WithAttrs(attrs)
	return &clone
}

func (h *bufferHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	clone.next = h.next.WithGroup(name)
	return &clone
}
