package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversEvents(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	defer d.Close()

	d.Emit(context.Background(), Event{EventType: "login", Email: "a@b.test", Success: true})

	select {
	case got := <-sink.Events():
		assert.Equal(t, "login", got.EventType)
		assert.Equal(t, "a@b.test", got.Email)
		assert.True(t, got.Success)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestDispatcherDisabledReturnsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	require.Nil(t, d)

	// Nil dispatcher must be safe to use.
	d.Emit(context.Background(), Event{EventType: "login"})
	assert.Zero(t, d.Dropped())
	d.Close()
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := sinkFunc(func(context.Context, Event) { <-block })

	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the worker, second fills the buffer, the rest drop.
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "register"})
	}

	assert.GreaterOrEqual(t, d.Dropped(), uint64(1))
	close(block)
	d.Close()
}

func TestDispatcherCloseDrainsBuffer(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), Event{EventType: "logout"})
	}
	d.Close()
	d.Close() // idempotent

	assert.Len(t, sink.Events(), 3)
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	now := time.Now().UTC()
	sink.Emit(context.Background(), Event{
		Timestamp: now,
		EventType: "reset_requested",
		Email:     "a@b.test",
		Success:   true,
	})

	var got Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "reset_requested", got.EventType)
	assert.Equal(t, "a@b.test", got.Email)
}

type sinkFunc func(context.Context, Event)

func (f sinkFunc) Emit(ctx context.Context, e Event) { f(ctx, e) }
