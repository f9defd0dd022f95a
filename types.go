package warden

import (
	"io"

	"github.com/wardenauth/warden/internal/audit"
	"github.com/wardenauth/warden/store"
)

// Identity is a registered user record.
type Identity = store.Identity

// AuditEvent is a single audit trail entry.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's dispatcher.
type AuditSink = audit.Sink

// NewChannelAuditSink returns a sink that buffers events on a channel,
// useful in tests and embedded consumers.
func NewChannelAuditSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONAuditSink returns a sink writing one JSON object per event.
func NewJSONAuditSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
