package goJWT

import (
	"context"
	"io"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	AuditEventTokenEncode = "token_encode"
	AuditEventTokenDecode = "token_decode"
)

// AuditEvent describes one finished encode or decode call. Token material and keys
// are never included.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Algorithm string            `json:"algorithm,omitempty"`
	TokenID   string            `json:"token_id,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Verified  bool              `json:"verified,omitempty"`
	Success   bool              `json:"success"`
	Stage     string            `json:"stage,omitempty"`
	Error     string            `json:"error,omitempty"`
	Latency   time.Duration     `json:"latency_ns"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink delivers events to a buffered channel.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink returns a sink buffering up to buffer events.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

// Emit queues event, giving up when ctx is done.
func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the receive side of the buffer.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes events as JSON lines. It is safe for concurrent use.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink returns a sink writing one JSON line per event to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit writes event as a JSON line.
func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
