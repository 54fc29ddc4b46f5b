package input

import (
	"sync"
	"time"
)

// Event is one tap, stamped in session elapsed time.
type Event struct {
	At time.Duration
}

// Stream buffers taps between ticks. A stream lives for exactly one session.
type Stream struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func NewStream() *Stream {
	return &Stream{events: make([]Event, 0, 16)}
}

// Push appends an event, it reports false once the stream is closed.
func (s *Stream) Push(e Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.events = append(s.events, e)
	return true
}

// Drain returns everything buffered so far, in arrival order.
func (s *Stream) Drain() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil
	}
	out := s.events
	s.events = make([]Event, 0, cap(out))
	return out
}

func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Close drops any buffered events and rejects later pushes.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.events = nil
}
