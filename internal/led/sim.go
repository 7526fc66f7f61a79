package led

import (
	"fmt"
	"sync"
)

// Sim is an in-memory driver that records the last written frame.
type Sim struct {
	mu     sync.Mutex
	count  int
	frame  []byte
	writes int
	closed bool
}

func NewSim(count int) *Sim {
	return &Sim{count: count, frame: make([]byte, count*3)}
}

func (s *Sim) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sim driver closed")
	}
	if len(rgb) != s.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), s.count)
	}
	copy(s.frame, rgb)
	s.writes++
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Frame returns a copy of the last written frame.
func (s *Sim) Frame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.frame))
	copy(out, s.frame)
	return out
}

// Writes returns how many frames have been written.
func (s *Sim) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
