// Package fake provides an in-memory Sink for headless runs and tests.
package fake

import "sync"

// Sink records every frame written to it.
type Sink struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func New() *Sink { return &Sink{} }

func (s *Sink) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(rgb))
	copy(buf, rgb)
	s.frames = append(s.frames, buf)
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Sink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Last returns the most recent frame, or nil if none were written.
func (s *Sink) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *Sink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
