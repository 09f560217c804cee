package service

import "context"

// ─────────────────────────────────────────────────────────────
// EventEmitter — decouples the engine from its consumers
// ─────────────────────────────────────────────────────────────

// Block mutation events. The realtime layer subscribes to these; the engine
// only guarantees an event fires after the mutation persisted.
const (
	EventBlockCreated = "block:created"
	EventBlockUpdated = "block:updated"
	EventBlockDeleted = "block:deleted"
)

// EventEmitter receives change notifications from the block store. Callers
// that don't care pass NopEmitter; the realtime layer supplies its own.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// NopEmitter drops every event.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, any) {}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}
