// Package redact scrubs personally identifiable information from log
// output. It offers both a string filter for delimited key=value
// payloads and an slog.Handler wrapper that masks attribute values by
// key before they reach the underlying handler.
package redact

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Redaction is the replacement written over filtered values.
const Redaction = "***"

// DefaultPIIFields covers the identity attributes this service handles.
var DefaultPIIFields = []string{"email", "password", "session_id", "reset_token"}

// Filter obfuscates the values of the named fields inside a message of
// separator-delimited key=value pairs. Unknown fields pass through
// untouched.
func Filter(fields []string, redaction, message, separator string) string {
	if len(fields) == 0 {
		return message
	}

	alternatives := make([]string, len(fields))
	for i, f := range fields {
		alternatives[i] = regexp.QuoteMeta(f)
	}
	pattern := fmt.Sprintf("(%s)=[^%s]*", strings.Join(alternatives, "|"), regexp.QuoteMeta(separator))

	re := regexp.MustCompile(pattern)
	return re.ReplaceAllString(message, "${1}="+redaction)
}

// Handler wraps an slog.Handler and replaces the values of configured
// attribute keys with the redaction marker.
type Handler struct {
	inner  slog.Handler
	fields map[string]struct{}
}

// NewHandler returns a Handler masking the given attribute keys. With no
// keys it falls back to DefaultPIIFields.
func NewHandler(inner slog.Handler, fields ...string) *Handler {
	if len(fields) == 0 {
		fields = DefaultPIIFields
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return &Handler{inner: inner, fields: set}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	scrubbed := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		scrubbed.AddAttrs(h.scrub(attr))
		return true
	})
	return h.inner.Handle(ctx, scrubbed)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbed := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		scrubbed[i] = h.scrub(attr)
	}
	return &Handler{inner: h.inner.WithAttrs(scrubbed), fields: h.fields}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name), fields: h.fields}
}

func (h *Handler) scrub(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindGroup {
		members := attr.Value.Group()
		scrubbed := make([]slog.Attr, len(members))
		for i, member := range members {
			scrubbed[i] = h.scrub(member)
		}
		return slog.Attr{Key: attr.Key, Value: slog.GroupValue(scrubbed...)}
	}
	if _, ok := h.fields[attr.Key]; ok {
		return slog.String(attr.Key, Redaction)
	}
	return attr
}
