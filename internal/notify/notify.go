package notify

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event is a single outbound notification: a template name plus the
// substitution data needed to render it for one recipient.
type Event struct {
	At        time.Time         `json:"at"`
	Template  string            `json:"template"`
	Recipient string            `json:"recipient,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// Sink receives dispatched notification events.
type Sink interface {
	Send(ctx context.Context, event Event)
}

// NoOpSink drops notification events.
type NoOpSink struct{}

func (NoOpSink) Send(context.Context, Event) {}

// ChannelSink writes notification events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Send(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Send(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
