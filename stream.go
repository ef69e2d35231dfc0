package currents

import (
	"sync"

	"github.com/currentslabs/currents/internal/buffer"
)

// EventStream delivers the events of one agent run to a single
// consumer. It guarantees that producing an event never blocks, even
// when:
//   - The consumer has not started reading yet
//   - The consumer is reading slowly
//
// A stream carries at most one terminal event (DoneEvent or
// ErrorEvent). The terminal event closes the stream; anything produced
// after it is discarded.
type EventStream struct {
	buf *buffer.Unbounded[Event]

	mu        sync.Mutex
	terminal  bool
	cancelled bool
}

// newEventStream creates an open stream ready to accept events.
func newEventStream() *EventStream {
	return &EventStream{buf: buffer.NewUnbounded[Event]()}
}

// Events returns the channel events arrive on. The channel is closed
// after the terminal event has been delivered, or immediately after
// Cancel.
func (s *EventStream) Events() <-chan Event {
	return s.buf.Receive()
}

// Cancel abandons the stream from the consumer side. Queued events are
// discarded, the events channel closes, and the producing run observes
// the cancellation through rejected sends. Safe to call more than once.
func (s *EventStream) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	s.mu.Unlock()

	s.buf.Close()
	s.buf.Drain()
}

// Cancelled reports whether the consumer has abandoned the stream.
func (s *EventStream) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// send appends ev for the consumer. It reports false when the event was
// not accepted: the stream already carried its terminal event, or the
// consumer cancelled. Passing a DoneEvent or ErrorEvent marks the
// stream terminal and closes it once the event is queued.
func (s *EventStream) send(ev Event) bool {
	var isTerminal bool
	switch ev.(type) {
	case DoneEvent, ErrorEvent:
		isTerminal = true
	}

	s.mu.Lock()
	if s.terminal || s.cancelled {
		s.mu.Unlock()
		return false
	}
	if isTerminal {
		s.terminal = true
	}
	s.mu.Unlock()

	s.buf.Send(ev)
	if isTerminal {
		s.buf.Close()
	}
	return true
}
